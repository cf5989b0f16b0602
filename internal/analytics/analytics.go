// Package analytics derives summary statistics from a document listing.
// It performs no I/O.
package analytics

import (
	"sort"
	"time"

	"github.com/starford/docsadmin/internal/models"
)

const (
	recentLimit  = 5
	folderLimit  = 5
	activityDays = 7

	// RootLabel buckets documents that live directly in the content root.
	RootLabel = "root"
)

// FolderCount is the number of documents in one folder.
type FolderCount struct {
	Folder string `json:"folder"`
	Count  int    `json:"count"`
}

// DayActivity is the number of documents last modified on Date.
type DayActivity struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}

// Stats is the dashboard summary.
type Stats struct {
	TotalDocs        int                      `json:"totalDocs"`
	TotalFolders     int                      `json:"totalFolders"`
	RecentDocs       []models.DocumentSummary `json:"recentDocs"`
	DocsByFolder     []FolderCount            `json:"docsByFolder"`
	ActivityLastWeek []DayActivity            `json:"activityLastWeek"`
}

// Compute summarizes docs and folders as of now.
//
// lastModified values have day granularity, so documents changed on the
// same day keep their listing order in RecentDocs.
func Compute(docs []models.DocumentSummary, folders []string, now time.Time) Stats {
	return Stats{
		TotalDocs:        len(docs),
		TotalFolders:     len(folders),
		RecentDocs:       recent(docs),
		DocsByFolder:     byFolder(docs),
		ActivityLastWeek: lastWeek(docs, now),
	}
}

func recent(docs []models.DocumentSummary) []models.DocumentSummary {
	out := append([]models.DocumentSummary{}, docs...)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].LastModified > out[j].LastModified
	})
	if len(out) > recentLimit {
		out = out[:recentLimit]
	}
	return out
}

func byFolder(docs []models.DocumentSummary) []FolderCount {
	index := map[string]int{}
	out := []FolderCount{}
	for _, d := range docs {
		folder := d.Folder
		if folder == "" {
			folder = RootLabel
		}
		i, ok := index[folder]
		if !ok {
			i = len(out)
			index[folder] = i
			out = append(out, FolderCount{Folder: folder})
		}
		out[i].Count++
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Count > out[j].Count })
	if len(out) > folderLimit {
		out = out[:folderLimit]
	}
	return out
}

func lastWeek(docs []models.DocumentSummary, now time.Time) []DayActivity {
	counts := map[string]int{}
	for _, d := range docs {
		counts[d.LastModified]++
	}
	today := now.UTC()
	out := make([]DayActivity, activityDays)
	for i := range activityDays {
		date := models.FormatDate(today.AddDate(0, 0, i-(activityDays-1)))
		out[i] = DayActivity{Date: date, Count: counts[date]}
	}
	return out
}
