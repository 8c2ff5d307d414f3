// Command statekv is a command line client for a statekvd server. It opens
// a state accessor over the remote store so every write goes through the
// same locking, versioning, and encoding path the library gives embedded
// callers.
//
// Example usage:
//
//	statekv --component pipeline --instance prod set threshold 42
//	statekv --component pipeline --instance prod set stages '["load", "run"]'
//	statekv --component pipeline --instance prod get stages
//	statekv --component pipeline --instance prod items
//	statekv --component pipeline --instance prod version
package main

import (
	"context"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/dreamware/statekv/internal/lock"
	"github.com/dreamware/statekv/internal/state"
	"github.com/dreamware/statekv/internal/store"
)

func main() {
	cmd := &cli.Command{
		Name:  "statekv",
		Usage: "Client for a statekvd state store",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "server",
				Value:   "http://localhost:7400",
				Usage:   "base URL of the statekvd server",
				Sources: cli.EnvVars("STATEKV_SERVER"),
			},
			&cli.StringFlag{
				Name:     "component",
				Usage:    "component name of the namespace",
				Required: true,
				Sources:  cli.EnvVars("STATEKV_COMPONENT"),
			},
			&cli.StringFlag{
				Name:     "instance",
				Usage:    "instance id of the namespace",
				Required: true,
				Sources:  cli.EnvVars("STATEKV_INSTANCE"),
			},
			&cli.DurationFlag{
				Name:    "lock-ttl",
				Value:   state.DefaultLockTTL,
				Usage:   "expiry on the namespace write lock",
				Sources: cli.EnvVars("STATEKV_LOCK_TTL"),
			},
		},
		Commands: []*cli.Command{
			{
				Name:      "get",
				Usage:     "Read one key and print it as JSON",
				ArgsUsage: "<key>",
				Action:    runGet,
			},
			{
				Name:      "set",
				Usage:     "Write one key; the value is parsed as JSON, falling back to plain text",
				ArgsUsage: "<key> <value>",
				Flags: []cli.Flag{
					&cli.DurationFlag{
						Name:  "ttl",
						Usage: "expiry on the entry (0 means no expiry)",
					},
				},
				Action: runSet,
			},
			{
				Name:   "keys",
				Usage:  "List the keys in the namespace",
				Action: runKeys,
			},
			{
				Name:   "items",
				Usage:  "Print every key and value in the namespace as JSON lines",
				Action: runItems,
			},
			{
				Name:   "version",
				Usage:  "Print the namespace write version",
				Action: runVersion,
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func openAccessor(ctx context.Context, c *cli.Command) (*state.Accessor, error) {
	remote := store.NewRemoteStore(c.String("server"))
	return state.New(ctx, c.String("component"), c.String("instance"),
		state.WithStore(remote),
		state.WithLocker(lock.NewStoreLocker(remote)),
		state.WithLockTTL(c.Duration("lock-ttl")),
	)
}

func runGet(ctx context.Context, c *cli.Command) error {
	if c.Args().Len() != 1 {
		return fmt.Errorf("get takes exactly one key")
	}
	acc, err := openAccessor(ctx, c)
	if err != nil {
		return err
	}
	v, err := acc.Get(ctx, c.Args().First())
	if err != nil {
		return err
	}
	out, err := renderValue(v)
	if err != nil {
		return err
	}
	fmt.Println(out)
	return nil
}

func runSet(ctx context.Context, c *cli.Command) error {
	if c.Args().Len() != 2 {
		return fmt.Errorf("set takes a key and a value")
	}
	acc, err := openAccessor(ctx, c)
	if err != nil {
		return err
	}
	value, err := parseValue(c.Args().Get(1))
	if err != nil {
		return err
	}
	var ttl time.Duration
	if c.IsSet("ttl") {
		ttl = c.Duration("ttl")
	}
	if err := acc.Set(ctx, c.Args().First(), value, ttl); err != nil {
		return err
	}
	fmt.Printf("version %d\n", acc.Version())
	return nil
}

func runKeys(ctx context.Context, c *cli.Command) error {
	acc, err := openAccessor(ctx, c)
	if err != nil {
		return err
	}
	keys, err := acc.Keys(ctx)
	if err != nil {
		return err
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Println(k)
	}
	return nil
}

func runItems(ctx context.Context, c *cli.Command) error {
	acc, err := openAccessor(ctx, c)
	if err != nil {
		return err
	}
	items, err := acc.Items(ctx)
	if err != nil {
		return err
	}
	sort.Slice(items, func(i, j int) bool { return items[i].Key < items[j].Key })
	for _, item := range items {
		out, err := renderValue(item.Value)
		if err != nil {
			return err
		}
		fmt.Printf("%s\t%s\n", item.Key, out)
	}
	return nil
}

func runVersion(ctx context.Context, c *cli.Command) error {
	acc, err := openAccessor(ctx, c)
	if err != nil {
		return err
	}
	fmt.Println(acc.Version())
	return nil
}
