package main

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/cuemby/pcontainers/pkg/blobstore"
	"github.com/cuemby/pcontainers/pkg/env"
	"github.com/cuemby/pcontainers/pkg/kv"
)

// openEnv acquires the Environment named by --env-path, or a throwaway
// temp one (destroyed on Close) when the flag is empty.
func openEnv(cmd *cobra.Command, opts env.Options) (*env.Environment, error) {
	path, _ := cmd.Flags().GetString("env-path")
	if path == "" {
		return env.MakeTemp(opts, true)
	}
	return env.Acquire(path, opts)
}

var dictCmd = &cobra.Command{
	Use:   "dict",
	Short: "Benchmark raw dict Put/Get throughput",
}

var dictBenchCmd = &cobra.Command{
	Use:   "bench",
	Short: "Put N entries then Get them back, reporting elapsed time",
	RunE: func(cmd *cobra.Command, args []string) error {
		n, _ := cmd.Flags().GetInt("entries")
		ctx := context.Background()

		e, err := openEnv(cmd, env.DefaultOptions())
		if err != nil {
			return fmt.Errorf("open environment: %w", err)
		}
		defer e.Close()

		d, err := kv.NewRawDict(e, "bench")
		if err != nil {
			return fmt.Errorf("open dict: %w", err)
		}

		start := time.Now()
		for i := 0; i < n; i++ {
			k := []byte(fmt.Sprintf("key-%08d", i))
			if err := d.Put(ctx, k, k); err != nil {
				return fmt.Errorf("put %d: %w", i, err)
			}
		}
		putElapsed := time.Since(start)

		start = time.Now()
		for i := 0; i < n; i++ {
			k := []byte(fmt.Sprintf("key-%08d", i))
			if _, err := d.Get(ctx, k); err != nil {
				return fmt.Errorf("get %d: %w", i, err)
			}
		}
		getElapsed := time.Since(start)

		length, err := d.Len(ctx)
		if err != nil {
			return err
		}

		fmt.Printf("dict bench: %d entries, put %v (%.0f/s), get %v (%.0f/s), len=%d\n",
			n, putElapsed, float64(n)/putElapsed.Seconds(), getElapsed, float64(n)/getElapsed.Seconds(), length)
		return nil
	},
}

var queueCmd = &cobra.Command{
	Use:   "queue",
	Short: "Benchmark raw queue Push/PopFront throughput",
}

var queueBenchCmd = &cobra.Command{
	Use:   "bench",
	Short: "Push N entries then pop them back off, reporting elapsed time",
	RunE: func(cmd *cobra.Command, args []string) error {
		n, _ := cmd.Flags().GetInt("entries")
		ctx := context.Background()

		e, err := openEnv(cmd, env.DefaultOptions())
		if err != nil {
			return fmt.Errorf("open environment: %w", err)
		}
		defer e.Close()

		q, err := kv.NewRawQueue(e, "bench")
		if err != nil {
			return fmt.Errorf("open queue: %w", err)
		}

		start := time.Now()
		for i := 0; i < n; i++ {
			if err := q.Push(ctx, []byte(fmt.Sprintf("item-%08d", i))); err != nil {
				return fmt.Errorf("push %d: %w", i, err)
			}
		}
		pushElapsed := time.Since(start)

		start = time.Now()
		for i := 0; i < n; i++ {
			if _, err := q.PopFront(ctx); err != nil {
				return fmt.Errorf("pop %d: %w", i, err)
			}
		}
		popElapsed := time.Since(start)

		fmt.Printf("queue bench: %d entries, push %v (%.0f/s), pop %v (%.0f/s)\n",
			n, pushElapsed, float64(n)/pushElapsed.Seconds(), popElapsed, float64(n)/popElapsed.Seconds())
		return nil
	},
}

var blobCmd = &cobra.Command{
	Use:   "blob",
	Short: "Smoke-test the blob file store",
}

var blobSmokeCmd = &cobra.Command{
	Use:   "smoke",
	Short: "Create, read back, and delete a sample file through FileStore",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		e, err := openEnv(cmd, blobstore.Options())
		if err != nil {
			return fmt.Errorf("open environment: %w", err)
		}
		defer e.Close()

		fs, err := blobstore.NewFileStore(e)
		if err != nil {
			return fmt.Errorf("open file store: %w", err)
		}

		content := []byte("pcontainers-bench smoke test payload")
		id, err := fs.Create(ctx, bytes.NewReader(content), "smoke.txt", "text/plain")
		if err != nil {
			return fmt.Errorf("create: %w", err)
		}

		f, err := fs.Get(ctx, id)
		if err != nil {
			return fmt.Errorf("get: %w", err)
		}
		fmt.Printf("blob smoke: id=%s filename=%s bytes=%d content=%q\n", id, f.Filename, f.ContentLength, string(f.Content))

		if err := fs.Delete(ctx, id); err != nil {
			return fmt.Errorf("delete: %w", err)
		}
		fmt.Println("blob smoke: deleted ok")
		return nil
	},
}

func init() {
	dictCmd.AddCommand(dictBenchCmd)
	dictBenchCmd.Flags().Int("entries", 10000, "Number of entries to put and get")

	queueCmd.AddCommand(queueBenchCmd)
	queueBenchCmd.Flags().Int("entries", 10000, "Number of entries to push and pop")

	blobCmd.AddCommand(blobSmokeCmd)
}
