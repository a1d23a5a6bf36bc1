// Package visualize renders completed phase results into artifacts.
package visualize

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path"
	"sort"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/twitter/sweep/store"
	"github.com/twitter/sweep/sweep/domain"
)

// ErrMissingKey means a result could not be matched to a trained model.
var ErrMissingKey = errors.New("no model for result key")

type Request struct {
	Results []domain.TaskResult
	Phase   domain.Phase
	// Store name of the performance log for this phase.
	PerformanceLog string
	Workers        int
	TopicMapDir    string
	OrdinationDir  string
}

type Artifacts struct {
	TopicMaps   []string
	Ordinations []string
}

func (a Artifacts) Merge(o Artifacts) Artifacts {
	return Artifacts{
		TopicMaps:   append(append([]string{}, a.TopicMaps...), o.TopicMaps...),
		Ordinations: append(append([]string{}, a.Ordinations...), o.Ordinations...),
	}
}

type Visualizer interface {
	Visualize(ctx context.Context, req Request) (Artifacts, error)
}

// PerformanceLogName is the per-phase log name, e.g. vis_perf_train_20240101120000000000.json.
func PerformanceLogName(phase domain.Phase, t time.Time) string {
	return fmt.Sprintf("vis_perf_%s_%s%06d.json", phase, t.Format("20060102150405"), t.Nanosecond()/1000)
}

// SummaryVisualizer writes a topic-map document and an ordination table per result.
type SummaryVisualizer struct {
	store store.Store
	Now   func() time.Time
}

func NewSummaryVisualizer(s store.Store) *SummaryVisualizer {
	return &SummaryVisualizer{store: s, Now: time.Now}
}

type topicMap struct {
	ModelID string             `json:"model_id"`
	Phase   string             `json:"phase"`
	Topics  int                `json:"num_topics"`
	Alpha   string             `json:"alpha"`
	Beta    string             `json:"beta"`
	Worker  string             `json:"worker,omitempty"`
	Metrics map[string]float64 `json:"metrics"`
}

type performanceLog struct {
	Phase      string   `json:"phase"`
	Workers    int      `json:"workers"`
	Results    int      `json:"results"`
	Started    string   `json:"started"`
	DurationMs int64    `json:"duration_ms"`
	Artifacts  []string `json:"artifacts"`
}

func (v *SummaryVisualizer) Visualize(ctx context.Context, req Request) (Artifacts, error) {
	started := v.Now()
	arts := Artifacts{}
	for _, res := range req.Results {
		if res.Model == nil {
			return arts, fmt.Errorf("%w: %s result for %s", ErrMissingKey, req.Phase, res.Key)
		}
		if res.Model.Key() != res.Key {
			return arts, fmt.Errorf("%w: %s result for %s carries model %s of %s", ErrMissingKey, req.Phase, res.Key, res.Model.ID(), res.Model.Key())
		}
		base := ArtifactBase(req.Phase, res)

		tm := topicMap{
			ModelID: res.Model.ID(),
			Phase:   req.Phase.String(),
			Topics:  res.Key.Topics,
			Alpha:   res.Key.Alpha.String(),
			Beta:    res.Key.Beta.String(),
			Worker:  res.Worker,
			Metrics: res.Metrics,
		}
		data, err := json.MarshalIndent(tm, "", "  ")
		if err != nil {
			return arts, err
		}
		name := path.Join(req.TopicMapDir, base+".json")
		if err := v.write(ctx, name, data); err != nil {
			return arts, err
		}
		arts.TopicMaps = append(arts.TopicMaps, name)

		name = path.Join(req.OrdinationDir, base+".csv")
		if err := v.write(ctx, name, ordination(res)); err != nil {
			return arts, err
		}
		arts.Ordinations = append(arts.Ordinations, name)
	}

	if req.PerformanceLog != "" {
		perf := performanceLog{
			Phase:      req.Phase.String(),
			Workers:    req.Workers,
			Results:    len(req.Results),
			Started:    started.Format(time.RFC3339),
			DurationMs: v.Now().Sub(started).Nanoseconds() / int64(time.Millisecond),
			Artifacts:  append(append([]string{}, arts.TopicMaps...), arts.Ordinations...),
		}
		data, err := json.MarshalIndent(perf, "", "  ")
		if err != nil {
			return arts, err
		}
		if err := v.write(ctx, req.PerformanceLog, data); err != nil {
			return arts, err
		}
	}
	log.WithFields(log.Fields{
		"phase":       req.Phase,
		"results":     len(req.Results),
		"topicMaps":   len(arts.TopicMaps),
		"ordinations": len(arts.Ordinations),
	}).Info("Visualized phase")
	return arts, nil
}

func (v *SummaryVisualizer) write(ctx context.Context, name string, data []byte) error {
	if err := v.store.Write(ctx, name, bytes.NewReader(data), int64(len(data))); err != nil {
		return fmt.Errorf("writing %s to %s: %v", name, v.store.Root(), err)
	}
	return nil
}

// ArtifactBase names the artifacts rendered for res; extensions are added per artifact.
// Results of one model on different batches are told apart by the batch key.
func ArtifactBase(phase domain.Phase, res domain.TaskResult) string {
	base := fmt.Sprintf("%s_%d_%s_%s_%s", phase, res.Key.Topics, res.Key.Alpha, res.Key.Beta, res.Model.ID())
	if res.Batch != "" {
		base += "_" + res.Batch
	}
	return base
}

// ordination is a CSV of the result's metrics in name order.
func ordination(res domain.TaskResult) []byte {
	names := make([]string, 0, len(res.Metrics))
	for name := range res.Metrics {
		names = append(names, name)
	}
	sort.Strings(names)

	var b strings.Builder
	b.WriteString("model_id,num_topics,alpha,beta")
	for _, name := range names {
		b.WriteString("," + name)
	}
	b.WriteString("\n")
	fmt.Fprintf(&b, "%s,%d,%s,%s", res.Model.ID(), res.Key.Topics, res.Key.Alpha, res.Key.Beta)
	for _, name := range names {
		fmt.Fprintf(&b, ",%g", res.Metrics[name])
	}
	b.WriteString("\n")
	return []byte(b.String())
}
