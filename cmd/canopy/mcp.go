package main

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"canopy/internal/mcpserver"
)

func mcpCmd() *cli.Command {
	return &cli.Command{
		Name:  "mcp",
		Usage: "Start MCP (Model Context Protocol) server for LLM tool integration",
		Description: `Starts an MCP server over stdio transport that exposes canopy's report
pipeline as tools that LLMs can invoke. This enables AI assistants like
Claude to explore the structure of a Python codebase, its complexity, and
its near-duplicate units.

To use with Claude Desktop, add to your config:
  {
    "mcpServers": {
      "canopy": {
        "command": "canopy",
        "args": ["mcp"]
      }
    }
  }

Available tools:
  - analyze_tree      Hierarchical report with per-unit structural metrics
  - find_duplicates   Near-duplicate functions ranked by similarity`,
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "manifest",
				Usage: "Print the MCP registry manifest as JSON and exit",
			},
		},
		Action: runMCPCmd,
	}
}

func runMCPCmd(c *cli.Context) error {
	if c.Bool("manifest") {
		data, err := mcpserver.GenerateManifest(version)
		if err != nil {
			return err
		}
		fmt.Println(string(data))
		return nil
	}
	server := mcpserver.NewServer(version)
	return server.Run(c.Context)
}
