package config

import (
	"path/filepath"
	"strconv"

	"echofm/logger"

	"github.com/fsnotify/fsnotify"
	"github.com/joho/godotenv"
)

// TrendingWeights is the hot-reloadable portion of the configuration.
type TrendingWeights struct {
	Plays     int
	Downloads int
}

// WatchTrendingWeights watches the .env file and invokes apply whenever the
// trending weights change. Returns a stop function. A missing .env file is
// not an error; the watcher simply never fires.
func WatchTrendingWeights(envPath string, current TrendingWeights, apply func(TrendingWeights)) (func(), error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	// Watch the directory: editors replace .env atomically, which drops
	// a watch placed on the file itself.
	dir := filepath.Dir(envPath)
	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return nil, err
	}

	go func() {
		last := current
		for {
			select {
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) != filepath.Clean(envPath) {
					continue
				}
				if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
					continue
				}
				next, err := readWeights(envPath, last)
				if err != nil {
					logger.Warn("Failed to reload trending weights", logger.ErrorField(err))
					continue
				}
				if next == last {
					continue
				}
				last = next
				apply(next)
				logger.Info("Trending weights reloaded",
					logger.Int("playsWeight", next.Plays),
					logger.Int("downloadsWeight", next.Downloads),
				)
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				logger.Warn("Config watcher error", logger.ErrorField(err))
			}
		}
	}()

	return func() { watcher.Close() }, nil
}

func readWeights(envPath string, fallback TrendingWeights) (TrendingWeights, error) {
	env, err := godotenv.Read(envPath)
	if err != nil {
		return fallback, err
	}
	out := fallback
	if v, ok := env["TRENDING_PLAYS_WEIGHT"]; ok {
		if n, err := strconv.Atoi(v); err == nil {
			out.Plays = n
		}
	}
	if v, ok := env["TRENDING_DOWNLOADS_WEIGHT"]; ok {
		if n, err := strconv.Atoi(v); err == nil {
			out.Downloads = n
		}
	}
	return out, nil
}
