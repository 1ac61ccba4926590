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
	"golang.org/x/term"
)

func encodeCmd(g *globalFlags) *cobra.Command {
	var (
		inPath       string
		outPath      string
		keyID        uint64
		password     string
		fillSize     int64
		noFileName   bool
		base64Output bool
		eraseOnUse   bool
	)

	cmd := &cobra.Command{
		Use:   "encode",
		Short: "Encrypt a file under the OT7 protocol",
		Example: `  ot7 encode -e secret.txt -KeyID 123 -oe secret.ot7
  ot7 encode -e secret.txt -KeyID 123 -f 16 -nofilename -base64 -oe secret.ot7.b64`,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := g.logger()
			start := time.Now()
			m := metrics.Default()

			if inPath == "" {
				return resultcode.Wrap(resultcode.MissingParameter, "missing -e <plaintext path>")
			}
			if keyID == 0 {
				return resultcode.Wrap(resultcode.MissingKeyID, "missing -KeyID")
			}

			pw, err := resolvePassword(password)
			if err != nil {
				return err
			}

			in, err := os.Open(inPath)
			if err != nil {
				return resultcode.Wrapf(resultcode.CantOpenPlaintextFile, "open %s: %v", inPath, err)
			}
			defer in.Close()

			info, err := in.Stat()
			if err != nil {
				return resultcode.Wrapf(resultcode.CantReadPlaintextFile, "stat %s: %v", inPath, err)
			}

			if outPath == "" {
				outPath = inPath + ".ot7"
			}
			out, err := os.Create(outPath)
			if err != nil {
				return resultcode.Wrapf(resultcode.CantOpenEncryptedFile, "create %s: %v", outPath, err)
			}
			defer out.Close()

			store, err := g.openStore()
			if err != nil {
				return err
			}

			// Key definition defaults; a -p password takes precedence.
			def, _ := store.Map.Lookup(keyID)
			if pw == "" {
				pw = def.Password
			}

			opts := record.EncodeOptions{
				KeyID:           keyID,
				Password:        pw,
				FileName:        filepath.Base(inPath),
				IncludeFileName: !noFileName,
				EraseOnUse:      eraseOnUse || def.EraseOnUse,
			}
			if def.FillSizeBound > 0 {
				opts.FillSizeBound = uint64(def.FillSizeBound)
			}
			if fillSize >= 0 {
				fs := uint64(fillSize)
				opts.FillSize = &fs
			}

			var res *record.EncodeResult
			if base64Output {
				tmp, err := os.CreateTemp(filepath.Dir(outPath), ".ot7-encode-*")
				if err != nil {
					return resultcode.Wrapf(resultcode.CantWriteEncryptedFile, "create temp file: %v", err)
				}
				defer os.Remove(tmp.Name())
				defer tmp.Close()

				res, err = record.Encode(store, in, uint64(info.Size()), tmp, opts)
				if err != nil {
					m.RecordEncodeError(codeName(err))
					return err
				}
				if _, err := tmp.Seek(0, 0); err != nil {
					return resultcode.Wrapf(resultcode.CantWriteEncryptedFile, "rewind temp file: %v", err)
				}
				if err := envelope.Encode(out, tmp); err != nil {
					return err
				}
			} else {
				res, err = record.Encode(store, in, uint64(info.Size()), out, opts)
				if err != nil {
					m.RecordEncodeError(codeName(err))
					return err
				}
			}

			elapsed := time.Since(start)
			m.RecordEncode(int(res.TextSize), int(res.FillSize), elapsed.Seconds())
			m.RecordKeyConsumption(fmt.Sprint(keyID), int(res.FillSize)+int(res.TextSize))

			logger.Info("encode complete",
				otlog.KeyOperation, "encode",
				otlog.KeyKeyID, keyID,
				otlog.KeyKeyAddress, res.KeyAddress,
				otlog.KeyTextSize, res.TextSize,
				otlog.KeyFillSize, res.FillSize,
				otlog.KeyRecordSize, res.BytesWritten,
				otlog.KeyDuration, elapsed.String(),
			)
			fmt.Printf("encoded %s -> %s (%s, key %d @ %d)\n",
				inPath, outPath, humanize.Bytes(uint64(res.BytesWritten)), keyID, res.KeyAddress)
			return nil
		},
	}

	cmd.Flags().StringVarP(&inPath, "e", "e", "", "path to the plaintext file to encrypt")
	cmd.Flags().StringVarP(&outPath, "oe", "o", "", "path to write the encrypted record (default: <input>.ot7)")
	cmd.Flags().Uint64Var(&keyID, "KeyID", 0, "key id to encode under")
	cmd.Flags().StringVarP(&password, "p", "p", "", "password (omit to be prompted)")
	cmd.Flags().Int64VarP(&fillSize, "f", "f", -1, "explicit fill size in bytes (-1 = derive from key material)")
	cmd.Flags().BoolVar(&noFileName, "nofilename", false, "omit the plaintext file name from the record")
	cmd.Flags().BoolVar(&base64Output, "base64", false, "wrap the output in RFC 4648 base64")
	cmd.Flags().BoolVar(&eraseOnUse, "erase", false, "zero the consumed one-time pad bytes after a successful encode")

	return cmd
}

// resolvePassword returns explicit if non-empty, otherwise prompts
// interactively (spec.md §4.1), following the teacher's hidden-input
// prompt pattern from its hash command.
func resolvePassword(explicit string) (string, error) {
	if explicit != "" {
		return explicit, nil
	}
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return "", nil
	}
	fmt.Print("Password (leave empty to use the key map's): ")
	pw, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Println()
	if err != nil {
		return "", resultcode.Wrapf(resultcode.MissingParameter, "reading password: %v", err)
	}
	return string(pw), nil
}

func codeName(err error) string {
	var code resultcode.Code
	if errors.As(err, &code) {
		return code.String()
	}
	return "UNKNOWN"
}
