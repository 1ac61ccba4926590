package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/otseven/OT7-sub000/internal/envelope"
	"github.com/otseven/OT7-sub000/internal/metrics"
	"github.com/otseven/OT7-sub000/internal/otlog"
	"github.com/otseven/OT7-sub000/internal/record"
	"github.com/otseven/OT7-sub000/internal/resultcode"
	"github.com/spf13/cobra"
)

func decodeCmd(g *globalFlags) *cobra.Command {
	var (
		inPath      string
		outPath     string
		password    string
		base64Input bool
		eraseOnUse  bool
		noCommit    bool
	)

	cmd := &cobra.Command{
		Use:   "decode",
		Short: "Decrypt an OT7 record",
		Example: `  ot7 decode -d secret.ot7 -od secret.txt
  ot7 decode -d secret.ot7.b64 -base64 -od secret.txt`,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := g.logger()
			start := time.Now()
			m := metrics.Default()

			if inPath == "" {
				return resultcode.Wrap(resultcode.MissingParameter, "missing -d <encrypted path>")
			}

			pw, err := resolvePassword(password)
			if err != nil {
				return err
			}

			in, err := os.Open(inPath)
			if err != nil {
				return resultcode.Wrapf(resultcode.CantOpenEncryptedFile, "open %s: %v", inPath, err)
			}
			defer in.Close()

			if outPath == "" {
				outPath = trimOT7Suffix(inPath) + ".out"
			}
			out, err := os.Create(outPath)
			if err != nil {
				return resultcode.Wrapf(resultcode.CantOpenPlaintextFile, "create %s: %v", outPath, err)
			}
			defer out.Close()

			store, err := g.openStore()
			if err != nil {
				return err
			}
			// A password given with -p replaces every key definition's
			// password for this run's trial matching.
			if pw != "" {
				for i := range store.Map.Defs {
					store.Map.Defs[i].Password = pw
				}
			}

			opts := record.DecodeOptions{
				CommitRange: !noCommit,
				EraseOnUse:  eraseOnUse,
			}

			var res *record.DecodeResult
			if base64Input {
				tmp, err := os.CreateTemp(filepath.Dir(outPath), ".ot7-decode-*")
				if err != nil {
					return resultcode.Wrapf(resultcode.CantReadEncryptedFile, "create temp file: %v", err)
				}
				defer os.Remove(tmp.Name())
				defer tmp.Close()

				if err := envelope.Decode(tmp, in); err != nil {
					return err
				}
				if _, err := tmp.Seek(0, 0); err != nil {
					return resultcode.Wrapf(resultcode.CantReadEncryptedFile, "rewind temp file: %v", err)
				}
				res, err = record.Decode(store, tmp, out, opts)
				if err != nil && !errors.Is(err, resultcode.InvalidChecksumDecrypted) {
					m.RecordDecodeError(codeName(err))
					return err
				}
			} else {
				res, err = record.Decode(store, in, out, opts)
				if err != nil && !errors.Is(err, resultcode.InvalidChecksumDecrypted) {
					m.RecordDecodeError(codeName(err))
					return err
				}
			}

			elapsed := time.Since(start)
			if res.ChecksumValid {
				m.RecordDecode(int(res.BytesWritten), res.Trials, elapsed.Seconds())
			} else {
				m.RecordChecksumFailure()
			}

			logger.Info("decode complete",
				otlog.KeyOperation, "decode",
				otlog.KeyKeyID, res.KeyID,
				otlog.KeyFileName, res.FileName,
				otlog.KeyDuration, elapsed.String(),
				"checksum_valid", res.ChecksumValid,
				"candidate_trials", res.Trials,
			)
			fmt.Printf("decoded %s -> %s (%s)\n", inPath, outPath, humanize.Bytes(uint64(res.BytesWritten)))

			if !res.ChecksumValid {
				return resultcode.Wrap(resultcode.InvalidChecksumDecrypted, "decoded checksum did not match; output was written anyway")
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&inPath, "d", "d", "", "path to the encrypted record to decrypt")
	cmd.Flags().StringVarP(&outPath, "od", "O", "", "path to write the decrypted plaintext (default: <input without .ot7>.out)")
	cmd.Flags().StringVarP(&password, "p", "p", "", "password (omit to be prompted)")
	cmd.Flags().BoolVar(&base64Input, "base64", false, "input is RFC 4648 base64-wrapped")
	cmd.Flags().BoolVar(&eraseOnUse, "erase", false, "zero the consumed one-time pad bytes after a successful decode")
	cmd.Flags().BoolVar(&noCommit, "no-commit", false, "do not record the decoded range in the consumption log")

	return cmd
}

func trimOT7Suffix(path string) string {
	const suffix = ".ot7"
	if filepath.Ext(path) == suffix {
		return path[:len(path)-len(suffix)]
	}
	return path
}
