package handler

import (
	"encoding/xml"
	"fmt"
	"net/http"
	"strings"

	"go-cms-app/internal/logger"
	"go-cms-app/internal/pages"
	"go-cms-app/internal/service"
)

// SeoHandler holds dependencies for SEO-related handlers.
type SeoHandler struct {
	pageService service.PageServicer
	baseURL     string
	log         logger.Logger
}

// NewSeoHandler creates a new SeoHandler. baseURL is the public origin of the site.
func NewSeoHandler(ps service.PageServicer, baseURL string, log logger.Logger) *SeoHandler {
	return &SeoHandler{pageService: ps, baseURL: strings.TrimSuffix(baseURL, "/"), log: log}
}

// robotsHandler serves robots.txt pointing at the sitemap.
func (h *SeoHandler) robotsHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	fmt.Fprintln(w, "User-agent: *")
	fmt.Fprintln(w, "Allow: /")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Sitemap: "+h.baseURL+"/sitemap.xml")
}

type sitemapURL struct {
	XMLName xml.Name `xml:"url"`
	Loc     string   `xml:"loc"`
}

type urlSet struct {
	XMLName xml.Name     `xml:"urlset"`
	Xmlns   string       `xml:"xmlns,attr"`
	URLs    []sitemapURL `xml:"url"`
}

// sitemapHandler lists every page the requester can see, link pages excluded,
// under its best path.
func (h *SeoHandler) sitemapHandler(w http.ResponseWriter, r *http.Request) {
	entries, err := h.pageService.ListPages(r.Context(), pages.ListOptions{ExcludeLinks: true})
	if err != nil {
		h.log.Error(err, "Failed to list pages for sitemap")
		http.Error(w, "Failed to retrieve pages for sitemap", http.StatusInternalServerError)
		return
	}

	sitemap := urlSet{
		Xmlns: "http://www.sitemaps.org/schemas/sitemap/0.9",
		URLs:  make([]sitemapURL, len(entries)),
	}
	for i, entry := range entries {
		sitemap.URLs[i] = sitemapURL{Loc: h.baseURL + entry.URL}
	}

	w.Header().Set("Content-Type", "application/xml")
	w.Write([]byte(xml.Header))
	encoder := xml.NewEncoder(w)
	encoder.Indent("", "  ")
	if err := encoder.Encode(sitemap); err != nil {
		h.log.Error(err, "Failed to encode sitemap")
	}
}
