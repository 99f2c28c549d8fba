package main

import (
	"fmt"

	"github.com/dhanavadh/eldercare-backend/internal/cms"
	"github.com/dhanavadh/eldercare-backend/internal/sitemap"

	"github.com/spf13/cobra"
)

var sitemapCmd = &cobra.Command{
	Use:   "sitemap",
	Short: "Print sitemap.xml as the server would serve it",
	RunE:  runSitemap,
}

func runSitemap(cmd *cobra.Command, _ []string) error {
	routes, err := sitemap.LoadRoutes(cfg.Site.RoutesFile)
	if err != nil {
		return err
	}

	b := sitemap.NewBuilder(cfg.Site.URL, routes, cms.NewClient(cfg.CMS))
	body, err := sitemap.Render(b.Build(cmd.Context()))
	if err != nil {
		return err
	}

	_, err = fmt.Fprintln(cmd.OutOrStdout(), string(body))
	return err
}
