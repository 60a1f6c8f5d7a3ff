// Command setup-memory creates the short-term and long-term memory
// resources the gateway binds to, waits until they are active, and
// prints the export lines for the gateway environment. Long-term memory
// creation can take a few minutes while the extraction strategies
// provision.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockagentcorecontrol"

	"github.com/avollmer/agentcore-showcase/pkg/config"
	"github.com/avollmer/agentcore-showcase/pkg/memory"
)

func main() {
	configPath := flag.String("config", "", "path to YAML config file")
	stmName := flag.String("stm-name", "agentcore_stm_demo", "name for the short-term memory")
	ltmName := flag.String("ltm-name", "agentcore_ltm_demo", "name for the long-term memory")
	flag.Parse()

	if err := run(*configPath, *stmName, *ltmName); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(configPath, stmName, ltmName string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Minute)
	defer cancel()

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.AWS.Region))
	if err != nil {
		return fmt.Errorf("loading AWS configuration: %w", err)
	}

	control := memory.NewControlClient(bedrockagentcorecontrol.NewFromConfig(awsCfg))

	fmt.Printf("creating short-term memory %q...\n", stmName)
	stm, err := control.CreateSTM(ctx, stmName)
	if err != nil {
		return fmt.Errorf("creating short-term memory: %w", err)
	}
	if _, err := control.WaitActive(ctx, stm.MemoryID); err != nil {
		return fmt.Errorf("waiting for short-term memory: %w", err)
	}
	fmt.Printf("  %s is active\n", stm.MemoryID)

	fmt.Printf("creating long-term memory %q (this can take a few minutes)...\n", ltmName)
	ltm, err := control.CreateLTM(ctx, ltmName)
	if err != nil {
		return fmt.Errorf("creating long-term memory: %w", err)
	}
	if _, err := control.WaitActive(ctx, ltm.MemoryID); err != nil {
		return fmt.Errorf("waiting for long-term memory: %w", err)
	}
	fmt.Printf("  %s is active\n", ltm.MemoryID)

	fmt.Println()
	fmt.Println("add these to the gateway environment:")
	fmt.Printf("export STM_MEMORY_ID=%s\n", stm.MemoryID)
	fmt.Printf("export LTM_MEMORY_ID=%s\n", ltm.MemoryID)
	return nil
}
