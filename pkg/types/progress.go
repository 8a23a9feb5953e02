// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// NoPageCompleted is the LastPage value of a crawl that has not finished any page.
const NoPageCompleted = -1

// CrawlProgress is the resumable state of a paginated fetch-all crawl.
// Games only grows while a crawl runs; the next page to request is
// LastPage + 1.
type CrawlProgress struct {
	LastPage int                  `json:"last_page"`
	Games    map[string]RawRecord `json:"games"`
}

// NewCrawlProgress returns the state of a crawl that has not started.
func NewCrawlProgress() CrawlProgress {
	return CrawlProgress{
		LastPage: NoPageCompleted,
		Games:    make(map[string]RawRecord),
	}
}

// NextPage returns the page index a resumed crawl should request first.
func (p CrawlProgress) NextPage() int {
	return p.LastPage + 1
}

// RunManifest summarizes one scheduled update run. It is written to
// last_update.yaml in the data directory after every run.
type RunManifest struct {
	RunID      string    `json:"run_id" yaml:"run_id"`
	Mode       string    `json:"mode" yaml:"mode"`
	StartedAt  time.Time `json:"started_at" yaml:"started_at"`
	FinishedAt time.Time `json:"finished_at" yaml:"finished_at"`

	// GamesFetched counts normalized games produced by this run.
	GamesFetched int `json:"games_fetched" yaml:"games_fetched"`

	// DatasetRows is the row count of games.csv after the merge.
	DatasetRows int `json:"dataset_rows" yaml:"dataset_rows"`

	SnapshotPath  string `json:"snapshot_path,omitempty" yaml:"snapshot_path,omitempty"`
	ReviewFiles   int    `json:"review_files" yaml:"review_files"`
	ReviewsSaved  int    `json:"reviews_saved" yaml:"reviews_saved"`
	ReviewErrors  int    `json:"review_errors" yaml:"review_errors"`
	FilesDeleted  int    `json:"files_deleted" yaml:"files_deleted"`
	DirsRemoved   int    `json:"dirs_removed" yaml:"dirs_removed"`
	SweepErrors   int    `json:"sweep_errors" yaml:"sweep_errors"`
	PagesFetched  int    `json:"pages_fetched,omitempty" yaml:"pages_fetched,omitempty"`
	PagesSkipped  int    `json:"pages_skipped,omitempty" yaml:"pages_skipped,omitempty"`
	CrawlComplete bool   `json:"crawl_complete" yaml:"crawl_complete"`
}
