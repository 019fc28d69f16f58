package orchestrator

import (
	"context"
	"strings"

	"github.com/locuscode/locus/pkg/types"
)

// handleCommand recognises the ":"-prefixed local commands of spec.md
// §4.5.7. It returns handled=true whenever text was a command, whether or
// not the command was recognised, so the caller never forwards it to the
// LLM.
func (o *Orchestrator) handleCommand(ctx context.Context, text string) (handled bool, err error) {
	if !strings.HasPrefix(text, ":") {
		return false, nil
	}

	fields := strings.Fields(text)
	if len(fields) == 0 {
		return true, nil
	}

	switch fields[0] {
	case ":mode":
		if len(fields) < 2 {
			return true, nil
		}
		mode := types.Mode(strings.ToLower(fields[1]))
		switch mode {
		case types.ModeRush, types.ModeSmart, types.ModeDeep:
			o.sess.SetMode(mode)
		}
		return true, nil

	case ":cancel":
		o.Cancel()
		return true, nil

	default:
		// Unknown commands are silently ignored, per spec.
		return true, nil
	}
}
