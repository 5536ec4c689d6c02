package metrics

import (
	"fmt"
	"io"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
)

// WriteText writes every metric family from gatherer in the Prometheus text
// exposition format.
func WriteText(w io.Writer, gatherer prometheus.Gatherer) error {
	families, err := gatherer.Gather()
	if err != nil {
		return fmt.Errorf("gather metrics: %w", err)
	}
	for _, mf := range families {
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			return fmt.Errorf("write metric %s: %w", mf.GetName(), err)
		}
	}
	return nil
}

// WriteFile dumps gatherer to path, replacing any existing file.
func WriteFile(path string, gatherer prometheus.Gatherer) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create metrics file: %w", err)
	}
	if err := WriteText(f, gatherer); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
