package keys

// Names the config grammar accepts for the synthetic keys produced by
// relative-axis disguising (DisguisedKeyFor), one positive/negative pair
// per axis, matching the original tool's naming scheme.
var disguiseNames = map[string]KeyCode{
	"xrightcursor": DisguisedKeyFor(RelX, false),
	"xleftcursor":  DisguisedKeyFor(RelX, true),
	"xdowncursor":  DisguisedKeyFor(RelY, false),
	"xupcursor":    DisguisedKeyFor(RelY, true),

	"xrel_z_axis_1": DisguisedKeyFor(RelZ, false),
	"xrel_z_axis_2": DisguisedKeyFor(RelZ, true),

	"xrel_rx_axis_1": DisguisedKeyFor(RelRX, false),
	"xrel_rx_axis_2": DisguisedKeyFor(RelRX, true),

	"xrel_ry_axis_1": DisguisedKeyFor(RelRY, false),
	"xrel_ry_axis_2": DisguisedKeyFor(RelRY, true),

	"xrel_rz_axis_1": DisguisedKeyFor(RelRZ, false),
	"xrel_rz_axis_2": DisguisedKeyFor(RelRZ, true),

	"xrightscroll": DisguisedKeyFor(RelHWheel, false),
	"xleftscroll":  DisguisedKeyFor(RelHWheel, true),

	"xrel_dial_1": DisguisedKeyFor(RelDial, false),
	"xrel_dial_2": DisguisedKeyFor(RelDial, true),

	"xupscroll":   DisguisedKeyFor(RelWheel, false),
	"xdownscroll": DisguisedKeyFor(RelWheel, true),

	"xrel_misc_1": DisguisedKeyFor(RelMisc, false),
	"xrel_misc_2": DisguisedKeyFor(RelMisc, true),

	"xrel_reserved_1": DisguisedKeyFor(RelReserved, false),
	"xrel_reserved_2": DisguisedKeyFor(RelReserved, true),

	"xhires_upscroll":   DisguisedKeyFor(RelWheelHiRes, false),
	"xhires_downscroll": DisguisedKeyFor(RelWheelHiRes, true),

	"xhires_rightscroll": DisguisedKeyFor(RelHWheelHiRes, false),
	"xhires_leftscroll":  DisguisedKeyFor(RelHWheelHiRes, true),
}

func init() {
	for name, code := range disguiseNames {
		nameToKey[name] = code
	}
}
