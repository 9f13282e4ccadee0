package cli

import (
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/Space-Wizard-Studios/ser-livre-psicologia/internal/logx"
	"github.com/Space-Wizard-Studios/ser-livre-psicologia/internal/sitedef"
)

// rebuildDebounce coalesces editor save bursts into one rebuild.
const rebuildDebounce = 300 * time.Millisecond

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Rebuild on every source change",
	Long: `watch builds once, then watches the site definition, content, assets,
styles, and static directories. Any change triggers a full rebuild; there is
no incremental state, so a failed rebuild leaves the last good bundle in
place.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		log := logx.L()

		if report, ok := runBuild(cmd.Context()); !ok {
			if err := report.Write(os.Stdout); err != nil {
				return err
			}
			os.Exit(1)
		}
		log.Info("initial build done, watching for changes")

		def, err := sitedef.Load(settings.Site)
		if err != nil {
			return err
		}

		watcher, err := fsnotify.NewWatcher()
		if err != nil {
			return err
		}
		defer watcher.Close()

		if err := watcher.Add(settings.Site); err != nil {
			return err
		}
		for _, dir := range watchRoots(def) {
			addTree(watcher, dir)
		}

		var timer *time.Timer
		for {
			select {
			case <-cmd.Context().Done():
				return nil
			case event, ok := <-watcher.Events:
				if !ok {
					return nil
				}
				if !event.Has(fsnotify.Write | fsnotify.Create | fsnotify.Remove | fsnotify.Rename) {
					continue
				}
				log.Debug("change detected", "path", event.Name, "op", event.Op.String())
				if event.Has(fsnotify.Create) {
					if info, statErr := os.Stat(event.Name); statErr == nil && info.IsDir() {
						addTree(watcher, event.Name)
					}
				}
				if timer != nil {
					timer.Stop()
				}
				timer = time.AfterFunc(rebuildDebounce, func() {
					if _, ok := runBuild(cmd.Context()); ok {
						log.Info("rebuilt")
					} else {
						log.Warn("rebuild failed, previous bundle still published")
					}
				})
			case watchErr, ok := <-watcher.Errors:
				if !ok {
					return nil
				}
				log.Warn("watcher error", "err", watchErr)
			}
		}
	},
}

func watchRoots(def *sitedef.Definition) []string {
	roots := []string{
		filepath.Join(def.Root, filepath.FromSlash(def.AssetsDir)),
		filepath.Join(def.Root, filepath.FromSlash(def.ContentDir)),
		filepath.Join(def.Root, filepath.FromSlash(def.StaticDir)),
		filepath.Dir(filepath.Join(def.Root, filepath.FromSlash(def.TokensPath))),
	}
	return roots
}

// addTree registers a directory and all of its subdirectories. fsnotify
// watches are not recursive.
func addTree(watcher *fsnotify.Watcher, root string) {
	if _, err := os.Stat(root); err != nil {
		return
	}
	_ = filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			if addErr := watcher.Add(path); addErr != nil {
				logx.L().Warn("cannot watch directory", "path", path, "err", addErr)
			}
		}
		return nil
	})
}

func init() {
	rootCmd.AddCommand(watchCmd)
}
