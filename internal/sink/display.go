package sink

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

const (
	// OverflowLineThreshold is the largest document shown inline. Anything
	// longer is saved to a file in the workspace instead.
	OverflowLineThreshold = 300000

	// OpenByteThreshold is the largest saved file handed to the Opener.
	OpenByteThreshold int64 = 20 << 20
)

// ErrNoWorkspace is returned when an overflowing document has nowhere to go.
var ErrNoWorkspace = errors.New("no workspace open")

// OverflowError reports a failed save of an overflowing document.
// A partially written file is left in place.
type OverflowError struct {
	Name string
	Path string
	Err  error
}

func (e *OverflowError) Error() string {
	return fmt.Sprintf("could not save %s to %s: %v", e.Name, e.Path, e.Err)
}

func (e *OverflowError) Unwrap() error {
	return e.Err
}

// DisplayKind describes how a document was presented.
type DisplayKind int

const (
	// DisplayInline means the lines were written to the display writer.
	DisplayInline DisplayKind = iota

	// DisplayOpened means the document was saved and handed to the Opener.
	DisplayOpened

	// DisplaySavedTooLarge means the document was saved but exceeds
	// OpenByteThreshold, so it was not opened.
	DisplaySavedTooLarge
)

// String returns a human-readable name for the kind.
func (k DisplayKind) String() string {
	switch k {
	case DisplayInline:
		return "inline"
	case DisplayOpened:
		return "opened"
	case DisplaySavedTooLarge:
		return "saved_too_large"
	default:
		return "unknown"
	}
}

// Display is the result of presenting a document.
type Display struct {
	Kind DisplayKind
	Path string
	Size int64
}

// Message returns the user-facing description of the display.
func (d Display) Message() string {
	switch d.Kind {
	case DisplayOpened:
		return fmt.Sprintf("Results saved to %s", d.Path)
	case DisplaySavedTooLarge:
		return fmt.Sprintf("Results saved to %s but the file is too large to open automatically", d.Path)
	default:
		return ""
	}
}

// Opener opens a saved results file for the user.
type Opener interface {
	Open(ctx context.Context, path string) error
}

// PrintOpener "opens" a file by printing its path.
type PrintOpener struct {
	W io.Writer
}

// Open implements Opener.
func (p PrintOpener) Open(_ context.Context, path string) error {
	_, err := fmt.Fprintf(p.W, "Results: %s\n", path)
	return err
}

// CommandOpener runs an external viewer with the path appended to Args.
type CommandOpener struct {
	Command string
	Args    []string
}

// Open implements Opener.
func (c CommandOpener) Open(ctx context.Context, path string) error {
	args := append(append([]string{}, c.Args...), path)
	cmd := exec.CommandContext(ctx, c.Command, args...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("open %s with %s: %w", path, c.Command, err)
	}
	return nil
}

// Displayer presents a finished Document.
type Displayer struct {
	// WorkspaceRoot receives overflow files. Empty means no workspace.
	WorkspaceRoot string

	// Out receives documents shown inline.
	Out io.Writer

	// Opener is handed saved files below ByteThreshold. May be nil.
	Opener Opener

	// Thresholds; zero selects OverflowLineThreshold / OpenByteThreshold.
	LineThreshold int
	ByteThreshold int64
}

// Display writes doc inline, or saves it to the workspace if it has more
// than LineThreshold lines. The document's lines are never discarded.
func (d *Displayer) Display(ctx context.Context, doc *Document) (Display, error) {
	lineThreshold := d.LineThreshold
	if lineThreshold <= 0 {
		lineThreshold = OverflowLineThreshold
	}
	byteThreshold := d.ByteThreshold
	if byteThreshold <= 0 {
		byteThreshold = OpenByteThreshold
	}

	if doc.Len() <= lineThreshold {
		out := d.Out
		if out == nil {
			out = io.Discard
		}
		n, err := doc.WriteTo(out)
		if err != nil {
			return Display{}, fmt.Errorf("display %s: %w", doc.Name(), err)
		}
		return Display{Kind: DisplayInline, Size: n}, nil
	}

	if d.WorkspaceRoot == "" {
		return Display{}, fmt.Errorf("could not save %s: %w", doc.Name(), ErrNoWorkspace)
	}

	path := filepath.Join(d.WorkspaceRoot, Filename(doc.Name()))
	size, err := saveDocument(doc, path)
	if err != nil {
		return Display{}, &OverflowError{Name: doc.Name(), Path: path, Err: err}
	}

	if size > byteThreshold {
		return Display{Kind: DisplaySavedTooLarge, Path: path, Size: size}, nil
	}
	if d.Opener != nil {
		if err := d.Opener.Open(ctx, path); err != nil {
			return Display{Kind: DisplayOpened, Path: path, Size: size}, err
		}
	}
	return Display{Kind: DisplayOpened, Path: path, Size: size}, nil
}

// saveDocument streams doc to path and returns the resulting file size.
func saveDocument(doc *Document, path string) (int64, error) {
	f, err := os.Create(path)
	if err != nil {
		return 0, err
	}
	if _, err := doc.WriteTo(f); err != nil {
		f.Close()
		return 0, err
	}
	if err := f.Close(); err != nil {
		return 0, err
	}
	info, err := os.Stat(path)
	if err != nil {
		return 0, err
	}
	return info.Size(), nil
}

// Filename derives an overflow file name from a sink name.
//
// Examples:
//   - "Randomtest Results"  -> "randomtest-results.txt"
//   - "randomtest/../x"     -> "randomtest-..-x.txt"
func Filename(name string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(strings.TrimSpace(name)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-', r == '_', r == '.':
			b.WriteRune(r)
		default:
			b.WriteRune('-')
		}
	}
	base := strings.Trim(b.String(), ".")
	if base == "" {
		base = "results"
	}
	return base + ".txt"
}
