package command

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"testing"

	"github.com/arkvale/worldsave-go/pkg/snapshot"
)

// runApp runs the CLI with args and captures stdout. Errors and logs go to
// stderr and are not captured.
func runApp(t *testing.T, args ...string) (string, error) {
	t.Helper()

	old := os.Stdout
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("pipe: %v", err)
	}
	os.Stdout = w

	runErr := App().Run(append([]string{"worldsave"}, args...))

	w.Close()
	os.Stdout = old

	var buf bytes.Buffer
	buf.ReadFrom(r)
	return buf.String(), runErr
}

// writeSnapshotFile writes a snapshot with the given number of single
// component entities to path.
func writeSnapshotFile(t *testing.T, path string, entities int, enc *snapshot.EncryptionConfig) *snapshot.Info {
	t.Helper()

	records := make([]snapshot.Record, 0, entities)
	for i := 0; i < entities; i++ {
		records = append(records, snapshot.Record{
			Index: uint64(i + 1),
			Components: []snapshot.Component{
				{Type: "position", Data: json.RawMessage(fmt.Sprintf(`{"x":%d,"y":%d}`, i, i*2))},
			},
		})
	}

	doc, err := snapshot.NewDocument(records, snapshot.ModeSave)
	if err != nil {
		t.Fatalf("NewDocument() error = %v", err)
	}
	info, err := snapshot.WriteFile(path, doc, enc)
	if err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	return info
}
