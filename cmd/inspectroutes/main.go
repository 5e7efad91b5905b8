// Command inspectroutes prints the registered provider definitions and the
// routes resolved from the current configuration.
package main

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/speechgate/speechgate/internal/config"
	"github.com/speechgate/speechgate/internal/providers"
)

func main() {
	fmt.Println("provider definitions:")
	for _, def := range providers.DefaultDefinitions() {
		fmt.Printf("  %-14s %s [%s]\n", def.Name, def.Description, strings.Join(def.Capabilities, ", "))
	}

	cfg, err := config.Load(config.Options{})
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	routes, err := providers.NewFactory(cfg).Build(context.Background())
	if err != nil {
		log.Fatalf("build routes: %v", err)
	}

	fmt.Println("routes:")
	for alias, rs := range routes {
		for _, route := range rs {
			caps := make([]string, 0, 3)
			if route.Transcribe != nil {
				caps = append(caps, "speech2text")
			}
			if route.Speech != nil {
				caps = append(caps, "tts")
			}
			if route.Validate != nil {
				caps = append(caps, "validate")
			}
			fmt.Printf("  %-20s provider=%s model=%s weight=%d [%s]\n",
				alias, route.Provider, route.Model, route.Weight, strings.Join(caps, ", "))
		}
	}
}
