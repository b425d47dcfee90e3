// Command demo_arena is a small end-to-end driver for the arena: it
// optionally loads an override config file, appends a handful of
// payloads, reads them back, acknowledges them, and runs cleanup.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/pkg/errors"

	"github.com/zhukovaskychina/blobarena/blobstore"
	"github.com/zhukovaskychina/blobarena/logger"
)

func main() {
	configPath := flag.String("config", "", "path to an optional INI override file (section [arena])")
	flag.Parse()

	if err := run(*configPath); err != nil {
		logger.Errorf("demo_arena: %v", err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	cfg := blobstore.DefaultConfig()

	if configPath != "" {
		loaded, err := blobstore.LoadConfigFile(configPath, cfg)
		if err != nil {
			return errors.Wrapf(err, "loading config file %q", configPath)
		}
		cfg = loaded
	}

	store, err := blobstore.New(cfg)
	if err != nil {
		return errors.Wrap(err, "creating arena")
	}

	payloads := []string{
		"hello from demo_arena",
		"a second, slightly longer message",
		"the third payload in this demonstration run",
	}

	var handles []blobstore.Handle
	for _, p := range payloads {
		h, err := store.Append([]byte(p))
		if err != nil {
			return errors.Wrap(err, "append")
		}
		handles = append(handles, h)
		fmt.Printf("appended %q, got handle for page %d\n", p, h.StartPage)
	}

	for i, h := range handles {
		data, ok := store.Get(h)
		if !ok {
			return errors.Errorf("handle %d unexpectedly invalid", i)
		}
		fmt.Printf("read back: %s\n", string(data))
		store.Acknowledge(h)
	}

	freed := store.Cleanup()
	fmt.Printf("cleanup freed %d pages\n", freed)

	pageCount, currentPageID := store.Stats()
	fmt.Printf("final stats: %d live pages, current page id %d\n", pageCount, currentPageID)

	return nil
}
