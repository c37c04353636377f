package export

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"
)

type jsonExport struct {
	ExportedAt string      `json:"exported_at"`
	Session    jsonSession `json:"session"`
	Count      int         `json:"count"`
	Blocks     []jsonBlock `json:"blocks"`
}

type jsonSession struct {
	ID                int64  `json:"id"`
	StartedAt         string `json:"started_at"`
	EndedAt           string `json:"ended_at,omitempty"`
	TotalSeconds      int64  `json:"total_seconds"`
	WorkedSeconds     int64  `json:"worked_seconds"`
	IdleSeconds       int64  `json:"idle_seconds"`
	Productivity      int    `json:"productivity"`
	BlockTotalSeconds int64  `json:"block_total_seconds"`
	Diverges          bool   `json:"totals_diverge,omitempty"`
}

type jsonBlock struct {
	ID            int64  `json:"id"`
	StartedAt     string `json:"started_at"`
	EndedAt       string `json:"ended_at,omitempty"`
	Flagged       bool   `json:"flagged"`
	Windows       string `json:"windows,omitempty"`
	Screenshots   int    `json:"screenshots"`
	WorkedSeconds int64  `json:"worked_seconds"`
	IdleSeconds   int64  `json:"idle_seconds"`
	TotalSeconds  int64  `json:"total_seconds"`
	Productivity  int    `json:"productivity"`
	Explanation   string `json:"explanation,omitempty"`
}

// ToJSON writes the session summary and per-block metrics.
func ToJSON(r Report, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create json file: %w", err)
	}
	defer f.Close()

	if err := WriteJSON(f, r); err != nil {
		return fmt.Errorf("write json file: %w", err)
	}
	return nil
}

func WriteJSON(w io.Writer, r Report) error {
	s := r.Session
	export := jsonExport{
		ExportedAt: r.GeneratedAt.UTC().Format(time.RFC3339),
		Session: jsonSession{
			ID:                s.ID,
			StartedAt:         s.StartedAt.Local().Format(time.RFC3339),
			EndedAt:           formatEnd(s.EndedAt),
			TotalSeconds:      s.TotalSeconds,
			WorkedSeconds:     r.Summary.WorkedSeconds,
			IdleSeconds:       r.Summary.IdleSeconds,
			Productivity:      r.Summary.Productivity,
			BlockTotalSeconds: r.Summary.BlockTotalSeconds,
			Diverges:          r.Summary.Diverges,
		},
		Count:  len(s.TimeBlocks),
		Blocks: make([]jsonBlock, 0, len(s.TimeBlocks)),
	}

	for i, b := range s.TimeBlocks {
		m := r.Blocks[i]
		export.Blocks = append(export.Blocks, jsonBlock{
			ID:            b.ID,
			StartedAt:     b.StartedAt.Local().Format(time.RFC3339),
			EndedAt:       formatEnd(b.EndedAt),
			Flagged:       b.IsFlagged,
			Windows:       windowTitles(b),
			Screenshots:   screenshotCount(b),
			WorkedSeconds: m.Worked,
			IdleSeconds:   m.Idle,
			TotalSeconds:  m.Total,
			Productivity:  m.Productivity,
			Explanation:   r.Explanations[b.ID],
		})
	}

	data, err := json.MarshalIndent(export, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal json: %w", err)
	}
	_, err = w.Write(append(data, '\n'))
	return err
}
