package gardener

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"
)

const (
	maxRecords    = 10
	reportRecords = 5 // how many recent records Format includes
)

// CycleRecord captures what happened in a single autopilot cycle.
type CycleRecord struct {
	Tick        uint64        `json:"tick"`
	Clock       time.Duration `json:"clock"`
	Score       float64       `json:"score"`
	Fruit       float64       `json:"fruit"`
	Tier        int           `json:"tier"`
	Occupied    int           `json:"occupied"`
	CrisisLevel string        `json:"crisis_level"`
	Actions     []string      `json:"actions"`
	Failed      int           `json:"failed,omitempty"`
}

// CycleMemory manages a ring of recent autopilot cycle records.
type CycleMemory struct {
	Records []CycleRecord `json:"records"`
	Cycles  int           `json:"cycles"` // total recorded, including trimmed
}

// LoadMemory reads a memory file. Returns empty memory if not found.
func LoadMemory(path string) *CycleMemory {
	data, err := os.ReadFile(path)
	if err != nil {
		return &CycleMemory{}
	}
	var mem CycleMemory
	if err := json.Unmarshal(data, &mem); err != nil {
		slog.Warn("gardener memory corrupted, starting fresh", "path", path, "error", err)
		return &CycleMemory{}
	}
	return &mem
}

// Save writes the memory to path.
func (m *CycleMemory) Save(path string) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal gardener memory: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write gardener memory: %w", err)
	}
	return nil
}

// Record adds a cycle record, trimming to maxRecords.
func (m *CycleMemory) Record(r CycleRecord) {
	m.Cycles++
	m.Records = append(m.Records, r)
	if len(m.Records) > maxRecords {
		m.Records = m.Records[len(m.Records)-maxRecords:]
	}
}

// Last returns the most recent record.
func (m *CycleMemory) Last() (CycleRecord, bool) {
	if len(m.Records) == 0 {
		return CycleRecord{}, false
	}
	return m.Records[len(m.Records)-1], true
}

// Format summarizes the last few cycles, one line each.
func (m *CycleMemory) Format() string {
	if len(m.Records) == 0 {
		return ""
	}

	var b strings.Builder
	b.WriteString("Recent autopilot cycles:\n")

	start := 0
	if len(m.Records) > reportRecords {
		start = len(m.Records) - reportRecords
	}
	for _, r := range m.Records[start:] {
		fmt.Fprintf(&b, "- tick %d: score=%.0f fruit=%.0f tier=%d occupied=%d crisis=%s",
			r.Tick, r.Score, r.Fruit, r.Tier, r.Occupied, r.CrisisLevel)
		if len(r.Actions) > 0 {
			fmt.Fprintf(&b, " actions=[%s]", strings.Join(r.Actions, "; "))
		}
		if r.Failed > 0 {
			fmt.Fprintf(&b, " failed=%d", r.Failed)
		}
		b.WriteString("\n")
	}
	return b.String()
}
