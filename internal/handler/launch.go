package handler

import (
	"fmt"
	"os/exec"
)

// runDetached starts command[0] with the remaining elements as arguments
// and does not wait for it to exit, matching spec.md §4.2's
// Launch(list<str>) contract ("spawn, detached; failure is logged, not
// propagated").
func runDetached(command []string) error {
	cmd := exec.Command(command[0], command[1:]...)
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("starting %v: %w", command, err)
	}
	go func() { _ = cmd.Wait() }()
	return nil
}
