// pre_processor.go implements the WGSL include pre-processor. Shared struct declarations such as
// the camera uniform are registered once under a name and pulled into shader sources with a
// directive line:
//
//	#include "camera"
//
// Includes expand recursively; each snippet is emitted at most once per source.
package shader

import (
	"fmt"
	"regexp"
	"strings"
	"sync"
)

// includeRegex matches an include directive occupying a whole line.
var includeRegex = regexp.MustCompile(`^\s*#include\s+"([^"]+)"\s*$`)

// preProcessor is the implementation of the PreProcessor interface.
type preProcessor struct {
	mu       sync.RWMutex
	snippets map[string]string
}

// PreProcessor expands #include directives in WGSL sources.
type PreProcessor interface {
	// Register stores snippet under name, replacing an earlier snippet with the same name.
	//
	// Parameters:
	//   - name: the include name
	//   - snippet: WGSL source text
	Register(name, snippet string)

	// Process replaces every #include line with the registered snippet.
	//
	// Parameters:
	//   - source: WGSL source with include directives
	//
	// Returns:
	//   - string: the expanded source
	//   - error: error naming the line of an unknown include or an include cycle
	Process(source string) (string, error)
}

var _ PreProcessor = &preProcessor{}

// NewPreProcessor creates a PreProcessor with no registered snippets.
//
// Returns:
//   - PreProcessor: a ready-to-use pre-processor instance
func NewPreProcessor() PreProcessor {
	return &preProcessor{snippets: make(map[string]string)}
}

func (p *preProcessor) Register(name, snippet string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.snippets[name] = snippet
}

func (p *preProcessor) Process(source string) (string, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	var sb strings.Builder
	if err := p.expand(&sb, source, make(map[string]bool), nil); err != nil {
		return "", err
	}
	return sb.String(), nil
}

func (p *preProcessor) expand(sb *strings.Builder, source string, emitted map[string]bool, stack []string) error {
	lines := strings.Split(source, "\n")
	for i, line := range lines {
		m := includeRegex.FindStringSubmatch(line)
		if m == nil {
			sb.WriteString(line)
			if i < len(lines)-1 {
				sb.WriteByte('\n')
			}
			continue
		}

		name := m[1]
		for _, open := range stack {
			if open == name {
				return fmt.Errorf("line %d: include cycle %s -> %s", i+1, strings.Join(stack, " -> "), name)
			}
		}
		if emitted[name] {
			continue
		}
		snippet, ok := p.snippets[name]
		if !ok {
			return fmt.Errorf("line %d: unknown include %q", i+1, name)
		}
		emitted[name] = true
		if err := p.expand(sb, snippet, emitted, append(stack, name)); err != nil {
			return fmt.Errorf("include %q: %w", name, err)
		}
		sb.WriteByte('\n')
	}
	return nil
}
