// seed_rubric.go loads rubrics from a YAML file and creates them via the Tally API.
//
// Usage:
//
//	go run scripts/seed_rubric.go -file scripts/rubric.example.yaml -api http://localhost:8700 -evaluator system
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"

	"gopkg.in/yaml.v3"
)

type criterion struct {
	ID       string   `yaml:"id" json:"id"`
	Label    string   `yaml:"label" json:"label,omitempty"`
	Section  string   `yaml:"section" json:"section,omitempty"`
	Weight   *float64 `yaml:"weight" json:"weight,omitempty"`
	ScaleMin *int     `yaml:"scale_min" json:"scale_min,omitempty"`
	ScaleMax *int     `yaml:"scale_max" json:"scale_max,omitempty"`
}

type rubric struct {
	Name        string      `yaml:"name" json:"name"`
	RFPID       string      `yaml:"rfp_id" json:"rfp_id,omitempty"`
	Description string      `yaml:"description" json:"description,omitempty"`
	Criteria    []criterion `yaml:"criteria" json:"criteria"`
}

type rubricFile struct {
	Rubrics []rubric `yaml:"rubrics"`
}

func main() {
	path := flag.String("file", "rubrics.yaml", "path to rubric YAML file")
	apiURL := flag.String("api", "http://localhost:8700", "Tally API base URL")
	evaluatorID := flag.String("evaluator", "system", "X-Evaluator-ID header value")
	dryRun := flag.Bool("dry-run", false, "print rubrics without posting")
	flag.Parse()

	data, err := os.ReadFile(*path)
	if err != nil {
		log.Fatalf("read %s: %v", *path, err)
	}
	var f rubricFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		log.Fatalf("parse %s: %v", *path, err)
	}
	log.Printf("loaded %d rubrics from %s", len(f.Rubrics), *path)

	if *dryRun {
		for i, r := range f.Rubrics {
			total := 0.0
			for _, c := range r.Criteria {
				if c.Weight != nil {
					total += *c.Weight
				} else {
					total++
				}
			}
			fmt.Printf("[%d] %s (criteria=%d, total_weight=%g)\n", i+1, r.Name, len(r.Criteria), total)
		}
		return
	}

	client := &http.Client{}
	created, skipped := 0, 0
	for _, r := range f.Rubrics {
		body, _ := json.Marshal(r)
		req, err := http.NewRequest("POST", *apiURL+"/api/v1/rubrics", bytes.NewReader(body))
		if err != nil {
			log.Printf("skip %q: %v", r.Name, err)
			skipped++
			continue
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("X-Evaluator-ID", *evaluatorID)

		resp, err := client.Do(req)
		if err != nil {
			log.Printf("skip %q: %v", r.Name, err)
			skipped++
			continue
		}

		var out struct {
			Rubric struct {
				ID string `json:"id"`
			} `json:"rubric"`
			Weights struct {
				Total           float64 `json:"total_weight"`
				WithinTolerance bool    `json:"within_tolerance"`
			} `json:"weights"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&out)
		resp.Body.Close()

		if resp.StatusCode != http.StatusCreated {
			log.Printf("skip %q: status %d", r.Name, resp.StatusCode)
			skipped++
			continue
		}
		created++
		if !out.Weights.WithinTolerance {
			log.Printf("warning: %q weights total %g", r.Name, out.Weights.Total)
		}
		log.Printf("created %q as %s", r.Name, out.Rubric.ID)
	}

	log.Printf("done: %d created, %d skipped", created, skipped)
}
