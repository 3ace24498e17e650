package stackusage

import (
	"sort"
	"strconv"
	"strings"

	"github.com/smith-xyz/stackpath/pkg/models"
)

// Table holds the per-function frame sizes of the merged stack-usage file,
// keyed by file name and then function name
type Table struct {
	entries   map[string]map[string]models.StackCostEntry
	malformed []models.MalformedRecord
	count     int
}

// Parse reads a merged stack-usage table. Lines that do not split into
// exactly three whitespace-separated fields are not data and are skipped.
// Three-field lines whose descriptor or byte count cannot be decoded are
// recorded as malformed. A later line for the same file and function
// replaces the earlier one.
func Parse(text string) *Table {
	table := &Table{entries: make(map[string]map[string]models.StackCostEntry)}

	for i, line := range strings.Split(text, "\n") {
		fields := strings.Fields(line)
		if len(fields) != 3 {
			continue
		}

		descriptor := strings.Split(fields[0], ":")
		if len(descriptor) < 4 {
			table.malformed = append(table.malformed, models.MalformedRecord{
				Line:   i + 1,
				Text:   strings.TrimSpace(line),
				Reason: "descriptor has fewer than 4 colon-separated parts",
			})
			continue
		}
		bytes, err := strconv.ParseInt(fields[1], 10, 64)
		if err != nil || bytes < 0 {
			table.malformed = append(table.malformed, models.MalformedRecord{
				Line:   i + 1,
				Text:   strings.TrimSpace(line),
				Reason: "byte count is not a non-negative integer",
			})
			continue
		}

		table.add(models.StackCostEntry{
			File:      descriptor[0],
			Function:  descriptor[3],
			Bytes:     bytes,
			Qualifier: fields[2],
		})
	}

	return table
}

func (t *Table) add(entry models.StackCostEntry) {
	functions, ok := t.entries[entry.File]
	if !ok {
		functions = make(map[string]models.StackCostEntry)
		t.entries[entry.File] = functions
	}
	if _, exists := functions[entry.Function]; !exists {
		t.count++
	}
	functions[entry.Function] = entry
}

// Lookup returns the frame size of function in file. Absent pairs cost 0.
func (t *Table) Lookup(file, function string) (int64, bool) {
	entry, ok := t.entries[file][function]
	if !ok {
		return 0, false
	}
	return entry.Bytes, true
}

// HasFile reports whether the table has any entry for file
func (t *Table) HasFile(file string) bool {
	_, ok := t.entries[file]
	return ok
}

// HasFunction reports whether file lists function
func (t *Table) HasFunction(file, function string) bool {
	_, ok := t.entries[file][function]
	return ok
}

// Len returns the number of distinct (file, function) entries
func (t *Table) Len() int {
	return t.count
}

// Files returns the file names with data, sorted
func (t *Table) Files() []string {
	files := make([]string, 0, len(t.entries))
	for file := range t.entries {
		files = append(files, file)
	}
	sort.Strings(files)
	return files
}

// Malformed returns the skipped data lines in input order
func (t *Table) Malformed() []models.MalformedRecord {
	return append([]models.MalformedRecord(nil), t.malformed...)
}
