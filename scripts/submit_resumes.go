package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"alfredoptarigan/resume-screener/internal/config"
	"alfredoptarigan/resume-screener/internal/logger"
	"alfredoptarigan/resume-screener/internal/models"
	"alfredoptarigan/resume-screener/internal/services"
	"alfredoptarigan/resume-screener/internal/session"
)

func main() {
	jobFile := flag.String("job", "", "job description file (txt, pdf or docx)")
	jobText := flag.String("job-text", "", "job description text")
	minScore := flag.Float64("min-score", 0, "only list candidates scoring at least this")
	exportPath := flag.String("export", "", "write the ranked list to this .xlsx file")
	flag.Parse()

	paths := flag.Args()
	if len(paths) == 0 {
		log.Fatalf("❌ Usage: submit_resumes [-job file | -job-text text] [-min-score N] [-export out.xlsx] resume-or-zip...")
	}

	log.Println("🚀 Starting resume submission...")

	// Load configuration
	cfg := config.Load()
	appLog := logger.NewStructured(cfg.Logging.Level, cfg.Logging.Format)
	defer appLog.Sync()

	sessions := session.NewController(session.NewMemoryStore(0), 0)
	backend := services.NewBackendClient(cfg.Backend.BaseURL, cfg.Backend.UploadTimeout, &http.Client{})
	orchestrator := services.NewUploadOrchestrator(services.NewArchiveExtractor(), backend, sessions, appLog)
	analysis := services.NewAnalysisTrigger(backend, sessions, appLog, cfg.Backend.DemoMode)

	ctx := context.Background()

	sessionID, _, err := sessions.Start(ctx, "cli@localhost")
	if err != nil {
		log.Fatalf("❌ Failed to start session: %v", err)
	}

	// Read the selection
	items := make([]models.UploadCandidateFile, 0, len(paths))
	for _, p := range paths {
		data, err := os.ReadFile(p)
		if err != nil {
			log.Fatalf("❌ Failed to read %s: %v", p, err)
		}
		items = append(items, models.UploadCandidateFile{Name: filepath.Base(p), Data: data})
	}

	// Upload
	log.Printf("📤 Uploading %d item(s) to %s", len(items), cfg.Backend.BaseURL)
	if _, err := sessions.BeginUpload(ctx, sessionID); err != nil {
		log.Fatalf("❌ %v", err)
	}

	stop := watchProgress(ctx, sessions, sessionID)
	records, err := orchestrator.Run(ctx, sessionID, items)
	stop()
	if err != nil {
		log.Fatalf("❌ Error uploading files: %v", err)
	}

	for _, r := range records {
		log.Printf("   ✅ %s (%s) -> %s", r.Name, r.Size, r.ID)
	}
	log.Printf("✅ %d resume(s) uploaded successfully!", len(records))

	// Job description
	job, err := loadJobDescription(*jobFile, *jobText)
	if err != nil {
		log.Fatalf("❌ %v", err)
	}
	if job.IsEmpty() {
		log.Println("⚠️  No job description given, skipping analysis.")
		return
	}
	if _, err := sessions.Dispatch(ctx, sessionID, session.JobDescriptionSet{JobDescription: job}); err != nil {
		log.Fatalf("❌ Failed to set job description: %v", err)
	}

	// Analysis
	log.Printf("🔄 Analyzing %d resume(s)...", len(records))
	if _, err := sessions.BeginAnalysis(ctx, sessionID); err != nil {
		log.Fatalf("❌ %v", err)
	}
	result, err := analysis.Analyze(ctx, sessionID)
	if err != nil {
		log.Fatalf("❌ Analysis failed: %v", err)
	}
	if result.DemoFallback {
		log.Println("⚠️  Backend gave no ranking, showing demonstration candidates.")
	}

	state, err := sessions.Dispatch(ctx, sessionID, session.FilterChanged{MinScore: *minScore})
	if err != nil {
		log.Fatalf("❌ %v", err)
	}
	filtered := state.FilteredResults()

	// Summary
	log.Println("\n" + strings.Repeat("=", 60))
	log.Printf("📊 Ranked Candidates (min score %.0f):", state.FilterScore)
	for i, c := range filtered {
		log.Printf("   %2d. %-22s %5.1f  %-9s %s", i+1, c.Name, c.Score, c.Band, strings.Join(c.Skills, ", "))
	}
	insights := models.ComputeInsights(len(state.Records), state.Results)
	log.Printf("   Total uploaded: %d, excellent: %d, average score: %d%%",
		insights.TotalUploaded, insights.ExcellentCount, insights.AverageScore)
	log.Println(strings.Repeat("=", 60))

	if *exportPath != "" {
		data, err := services.ExportResults(filtered, state.JobDescription, time.Now())
		if err != nil {
			log.Fatalf("❌ Failed to export results: %v", err)
		}
		if err := os.WriteFile(*exportPath, data, 0644); err != nil {
			log.Fatalf("❌ Failed to write %s: %v", *exportPath, err)
		}
		log.Printf("💾 Results written to %s", *exportPath)
	}
}

func loadJobDescription(path, text string) (models.JobDescription, error) {
	if path == "" {
		return models.JobDescription{Text: text, Method: models.InputPasted}, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return models.JobDescription{}, fmt.Errorf("failed to read job description: %w", err)
	}
	return services.NewJobDescriptionExtractor().Extract(filepath.Base(path), data)
}

// watchProgress prints the session's upload progress until the returned func is called.
func watchProgress(ctx context.Context, sessions *session.Controller, id string) func() {
	done := make(chan struct{})
	finished := make(chan struct{})

	go func() {
		defer close(finished)
		ticker := time.NewTicker(500 * time.Millisecond)
		defer ticker.Stop()

		last := -1.0
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				state, err := sessions.State(ctx, id)
				if err != nil || state.UploadProgress == last {
					continue
				}
				last = state.UploadProgress
				log.Printf("   📊 Progress: %.0f%%", last)
			}
		}
	}()

	return func() {
		close(done)
		<-finished
	}
}
