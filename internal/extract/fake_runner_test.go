package extract

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"
)

// fakeRunner answers bedtools and Rscript invocations with canned output.
type fakeRunner struct {
	mu       sync.Mutex
	commands []Command
	stdout   map[string]string // by first argument ("nuc", "intersect")
	features string            // written to --output by the R step; "" writes nothing
	failOn   string            // first argument that fails
}

func (f *fakeRunner) Run(_ context.Context, c Command) error {
	f.mu.Lock()
	f.commands = append(f.commands, c)
	f.mu.Unlock()

	key := ""
	if len(c.Args) > 0 {
		key = c.Args[0]
	}
	if key == f.failOn {
		return fmt.Errorf("%s exited with status 1", c.Name)
	}
	if out, ok := f.stdout[key]; ok && c.Stdout != nil {
		if _, err := io.WriteString(c.Stdout, out); err != nil {
			return err
		}
	}
	if f.features != "" {
		for i := 0; i+1 < len(c.Args); i++ {
			if c.Args[i] == "--output" {
				return os.WriteFile(c.Args[i+1], []byte(f.features), 0o644)
			}
		}
	}
	return nil
}
