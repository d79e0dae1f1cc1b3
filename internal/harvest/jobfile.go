// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package harvest

import (
	"fmt"
	"os"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/arxiv-harvest/pkg/types"
)

// jobsFile is the on-disk shape of a jobs file: a map of job name to job
// definition under a top-level "jobs" key.
type jobsFile struct {
	Jobs map[string]types.JobConfig `yaml:"jobs"`
}

// LoadJobs reads a YAML jobs file. Each job's Name field is filled from
// its map key.
func LoadJobs(path string) (map[string]types.JobConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading jobs file: %w", err)
	}

	var jf jobsFile
	if err := yaml.Unmarshal(data, &jf); err != nil {
		return nil, fmt.Errorf("parsing jobs file %s: %w", path, err)
	}
	if len(jf.Jobs) == 0 {
		return nil, fmt.Errorf("jobs file %s defines no jobs", path)
	}

	for name, job := range jf.Jobs {
		job.Name = name
		jf.Jobs[name] = job
	}
	return jf.Jobs, nil
}

// SaveJobs writes jobs back to a YAML jobs file, preserving the map shape
// LoadJobs expects.
func SaveJobs(path string, jobs map[string]types.JobConfig) error {
	data, err := yaml.Marshal(jobsFile{Jobs: jobs})
	if err != nil {
		return fmt.Errorf("marshaling jobs: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}
