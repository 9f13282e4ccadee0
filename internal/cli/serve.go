package cli

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/spf13/cobra"

	"github.com/Space-Wizard-Studios/ser-livre-psicologia/internal/logx"
	"github.com/Space-Wizard-Studios/ser-livre-psicologia/internal/sitedef"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Preview the published bundle locally",
	Long: `serve runs a build, then serves the output directory on a local HTTP
server. Responses are marked uncacheable so hashed-asset swaps show up on
plain reload.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		if report, ok := runBuild(cmd.Context()); !ok {
			if err := report.Write(os.Stdout); err != nil {
				return err
			}
			os.Exit(1)
		}

		def, err := sitedef.Load(settings.Site)
		if err != nil {
			return err
		}
		outDir := filepath.Join(def.Root, filepath.FromSlash(def.OutputDir))

		r := chi.NewRouter()
		r.Use(middleware.RealIP)
		r.Use(middleware.Recoverer)
		r.Use(noStore)
		r.Handle("/*", http.FileServer(http.Dir(outDir)))

		addr := fmt.Sprintf(":%d", settings.Port)
		logx.L().Info("preview server listening", "addr", "http://localhost"+addr, "dir", outDir)

		srv := &http.Server{
			Addr:              addr,
			Handler:           r,
			ReadHeaderTimeout: 5 * time.Second,
		}
		return srv.ListenAndServe()
	},
}

// noStore disables caching for local preview. The published bundle relies on
// content hashing for cache busting, but a preview server should never serve
// a stale entry document.
func noStore(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
		if strings.HasSuffix(r.URL.Path, "/") {
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
		}
		next.ServeHTTP(w, r)
	})
}

func init() {
	serveCmd.Flags().IntP("port", "p", 4173, "port to serve the preview on")
	rootCmd.AddCommand(serveCmd)
}
