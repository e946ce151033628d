package commands

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"courseatlas-backend/lib/browser"
	"courseatlas-backend/lib/catalog"
	"courseatlas-backend/lib/configutil"
	"courseatlas-backend/lib/proxypool"
	"courseatlas-backend/lib/scrapers/sia"
	"courseatlas-backend/lib/scrapers/sia/apiv1"
	"courseatlas-backend/lib/scrapers/sia/apiv2"
	"courseatlas-backend/lib/scrapers/sia/form"
	"courseatlas-backend/lib/serviceutil"
	"courseatlas-backend/services/courses"

	"github.com/spf13/cobra"
)

type Config struct {
	RegistryBaseUrl string `json:"registry_base_url"`
	Apiv1BaseUrl    string `json:"apiv1_base_url"`
	Apiv2BaseUrl    string `json:"apiv2_base_url"`
	PingTarget      string `json:"ping_target"`
	CacheRateMins   int    `json:"cache_rate_mins"`
}

var scrapeFlags struct {
	source   *string
	mode     *string
	level    *string
	place    *string
	faculty  *string
	program  *string
	typology *string
	code     *string
	name     *string
}

func init() {
	scrapeFlags.source = scrapeCmd.Flags().String("source", "apiv2", "Source to scrape: form, apiv1 or apiv2.")
	scrapeFlags.mode = scrapeCmd.Flags().String("mode", "", "Free-elective search mode for the form source.")
	scrapeFlags.level = scrapeCmd.Flags().String("level", "PREGRADO", "Level of study.")
	scrapeFlags.place = scrapeCmd.Flags().String("place", "BOGOTÁ", "Campus.")
	scrapeFlags.faculty = scrapeCmd.Flags().String("faculty", "", "Faculty label.")
	scrapeFlags.program = scrapeCmd.Flags().String("program", "", "Program label, \"<code> <name>\".")
	scrapeFlags.typology = scrapeCmd.Flags().String("typology", "", "Course typology.")
	scrapeFlags.code = scrapeCmd.Flags().String("code", "", "Course code.")
	scrapeFlags.name = scrapeCmd.Flags().String("name", "", "Course name search term.")
	rootCmd.AddCommand(scrapeCmd)
}

func buildFilter() sia.Filter {
	filter := sia.Filter{
		Faculty: *scrapeFlags.faculty,
		Program: *scrapeFlags.program,
		Code:    *scrapeFlags.code,
		Name:    *scrapeFlags.name,
	}

	level, ok := catalog.ParseLevel(*scrapeFlags.level)
	if !ok {
		serviceutil.Fatal("unknown level", sia.ResolutionFailedError{What: "level", Label: *scrapeFlags.level})
	}
	filter.Level = level

	place, ok := catalog.ParsePlace(*scrapeFlags.place)
	if !ok {
		serviceutil.Fatal("unknown place", sia.ResolutionFailedError{What: "place", Label: *scrapeFlags.place})
	}
	filter.Place = place

	if *scrapeFlags.typology != "" {
		typology, ok := catalog.ParseTypology(*scrapeFlags.typology)
		if !ok {
			serviceutil.Fatal("unknown typology", sia.ResolutionFailedError{What: "typology", Label: *scrapeFlags.typology})
		}
		filter.Typology = typology
	}

	return filter
}

func buildService(mode form.SearchMode) *courses.Service {
	cfg, err := configutil.ReadConfig[Config]("siascan.json5")
	if err != nil {
		serviceutil.Fatal("failed to read config", err)
	}

	store := openStore()
	return courses.NewService(
		store,
		proxypool.NewRegistry(store, proxypool.DefaultOptions()),
		apiv1.NewClient(apiv1.ClientOptions{BaseURL: cfg.Apiv1BaseUrl}),
		apiv2.NewClient(apiv2.ClientOptions{BaseURL: cfg.Apiv2BaseUrl}),
		courses.Options{
			RegistryBaseURL: cfg.RegistryBaseUrl,
			PingTarget:      cfg.PingTarget,
			CacheRate:       time.Duration(cfg.CacheRateMins) * time.Minute,
			FormMode:        mode,
			NewDriver: func(ctx context.Context, proxyAddress string) (browser.Driver, error) {
				return browser.NewChrome(ctx, browser.ChromeOptions{Proxy: proxyAddress})
			},
		},
	)
}

var scrapeCmd = &cobra.Command{
	Use:   "scrape [--source <form|apiv1|apiv2>] [--code <code>] ...",
	Short: "Scrapes courses matching a filter and reconciles them into the database.",
	Run: func(cmd *cobra.Command, args []string) {
		service := buildService(form.SearchMode(*scrapeFlags.mode))

		t1 := time.Now()
		results, err := service.FetchCourses(cmd.Context(), courses.Source(*scrapeFlags.source), buildFilter())
		if err != nil {
			serviceutil.Fatal("scrape failed", err)
		}
		t2 := time.Now()

		renderCourses(results)
		slog.Info("scraping time", "seconds", t2.Sub(t1).Seconds(), "courses", len(results))
	},
}

func joinSet(values []string) string {
	return strings.Join(values, "; ")
}
