package cli

import (
	"errors"

	"github.com/linuxmatters/actlevel/internal/audio"
)

// Process exit codes. Each I/O failure kind has its own code so scripts can
// tell a missing input from a full disk.
const (
	ExitOK          = 0
	ExitFailure     = 1
	ExitInputOpen   = 2
	ExitOutputOpen  = 3
	ExitSeek        = 4
	ExitRead        = 5
	ExitWrite       = 6
	ExitUnsupported = 7
)

var exitCodes = []struct {
	kind error
	code int
}{
	{audio.ErrInputOpen, ExitInputOpen},
	{audio.ErrOutputCreate, ExitOutputOpen},
	{audio.ErrSeek, ExitSeek},
	{audio.ErrShortRead, ExitRead},
	{audio.ErrShortWrite, ExitWrite},
	{audio.ErrUnsupportedContainer, ExitUnsupported},
}

// ExitCode maps an error to the process exit status.
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}
	for _, e := range exitCodes {
		if errors.Is(err, e.kind) {
			return e.code
		}
	}
	return ExitFailure
}
