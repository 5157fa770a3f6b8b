package wm

// NoneClient is the negative-result fallback Detect returns when no
// supported compositor is detected.
type NoneClient struct{}

func NewNoneClient() *NoneClient { return &NoneClient{} }

func (*NoneClient) Supported() bool { return false }

func (*NoneClient) CurrentApplication() (string, bool) { return "", false }
