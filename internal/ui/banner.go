package ui

import (
	"fmt"
	"io"
	"strings"
)

// BannerInfo is what the startup banner reports.
type BannerInfo struct {
	URL            string
	Index          string
	HasCredentials bool
	IDVar          string
	SecretVar      string
	EnvFile        string
}

// Banner renders the startup banner with the default palette.
func Banner(info BannerInfo) string {
	return RenderBanner(styles, info)
}

// RenderBanner renders the startup banner with p.
func RenderBanner(p Painter, info BannerInfo) string {
	var b strings.Builder

	fmt.Fprintf(&b, "%s\n\n", p.Title("M+ helper gateway"))
	fmt.Fprintf(&b, "  Serving at %s\n", p.OK(info.URL))
	if info.Index != "" {
		fmt.Fprintf(&b, "  Page: %s\n", info.Index)
	}
	b.WriteString("\n")

	if info.HasCredentials {
		fmt.Fprintf(&b, "  %s\n", p.OK("Blizzard API credentials detected"))
	} else {
		fmt.Fprintf(&b, "  %s Blizzard API credentials not found\n", p.Warn("WARNING:"))
		fmt.Fprintf(&b, "  Set %s and %s", info.IDVar, info.SecretVar)
		if info.EnvFile != "" {
			fmt.Fprintf(&b, " in the environment or in %s", info.EnvFile)
		}
		b.WriteString("\n")
		fmt.Fprintf(&b, "  %s\n", p.Help("/api/blizzard requests will fail until they are set; /proxy still works"))
	}

	fmt.Fprintf(&b, "\n  %s\n", p.Help("Press Ctrl+C to stop"))
	return b.String()
}

// PrintBanner writes [Banner] to w.
func PrintBanner(w io.Writer, info BannerInfo) error {
	_, err := io.WriteString(w, Banner(info))
	return err
}
