// Command rulelint validates a detection rules file before it is deployed.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/crimsonops/policygen/internal/core/detect"
)

func main() {
	path := flag.String("rules", "", "path to a detection rules YAML file (default: built-in rules)")
	flag.Parse()

	var (
		set detect.RuleSet
		err error
	)
	if *path == "" {
		set = detect.DefaultRuleSet()
	} else {
		set, err = detect.Load(*path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "rulelint: %v\n", err)
			os.Exit(1)
		}
	}

	if err := set.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "rulelint: %v\n", err)
		os.Exit(1)
	}

	ruleCount := 0
	for _, field := range set.Fields {
		ruleCount += len(field.Rules)
	}
	fmt.Printf("ok: %d fields, %d rules, %d compliance tags\n", len(set.Fields), ruleCount, len(set.Tags))
}
