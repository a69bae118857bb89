// Command bpetok trains a byte-pair-encoding tokenizer, encodes text into
// token IDs, and decodes token IDs back into bytes (§6.3).
package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/gobpe/bpetok/internal/bpe/model"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	var err error
	switch os.Args[1] {
	case "train":
		err = runTrain(os.Args[2:])
	case "encode":
		err = runEncode(os.Args[2:])
	case "decode":
		err = runDecode(os.Args[2:])
	default:
		usage()
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintln(os.Stderr, "bpetok:", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage:")
	fmt.Fprintln(os.Stderr, "  bpetok train [-quiet] [-min-freq N] <corpus_path> <model_path> <vocab_size> [<min_freq>]")
	fmt.Fprintln(os.Stderr, "  bpetok encode <model_path> <text>")
	fmt.Fprintln(os.Stderr, "  bpetok decode <model_path> <id1> <id2> ...")
}

func runTrain(args []string) error {
	fs := flag.NewFlagSet("train", flag.ContinueOnError)
	quiet := fs.Bool("quiet", false, "suppress progress output")
	minFreqFlag := fs.Int("min-freq", 0, "minimum pair frequency eligible for a merge (overrides the positional form)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	rest := fs.Args()
	if len(rest) < 3 {
		return fmt.Errorf("usage: train [-quiet] [-min-freq N] <corpus_path> <model_path> <vocab_size> [<min_freq>]")
	}
	corpusPath, modelPath := rest[0], rest[1]

	vocabSize, err := strconv.Atoi(rest[2])
	if err != nil {
		return fmt.Errorf("%w: vocab_size: %v", model.ErrInvalidArgument, err)
	}

	minFreq := 2
	if len(rest) > 3 {
		minFreq, err = strconv.Atoi(rest[3])
		if err != nil {
			return fmt.Errorf("%w: min_freq: %v", model.ErrInvalidArgument, err)
		}
	}
	if *minFreqFlag != 0 {
		minFreq = *minFreqFlag
	}

	if err := model.ValidateTrainArgs(vocabSize, minFreq); err != nil {
		return err
	}

	corpus, err := os.ReadFile(corpusPath)
	if err != nil {
		return fmt.Errorf("read corpus %s: %w", corpusPath, err)
	}

	var progress io.Writer = os.Stderr
	if *quiet {
		progress = io.Discard
	}

	tok := model.Train(corpus, model.TrainOptions{
		TargetVocab: uint32(vocabSize),
		MinFreq:     uint32(minFreq),
		Progress:    progress,
	})

	if err := tok.Save(modelPath); err != nil {
		return err
	}

	fmt.Println("Done.")
	return nil
}

func runEncode(args []string) error {
	if len(args) < 2 {
		return fmt.Errorf("usage: encode <model_path> <text>")
	}

	tok, err := model.Load(args[0])
	if err != nil {
		return err
	}

	ids := tok.Encode([]byte(args[1]))
	for i, id := range ids {
		if i > 0 {
			fmt.Print(" ")
		}
		fmt.Print(id)
	}
	fmt.Println()
	return nil
}

func runDecode(args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: decode <model_path> <id1> <id2> ...")
	}

	tok, err := model.Load(args[0])
	if err != nil {
		return err
	}

	ids := make([]uint32, 0, len(args)-1)
	for _, a := range args[1:] {
		n, err := strconv.ParseUint(a, 10, 32)
		if err != nil {
			return fmt.Errorf("%w: token id %q: %v", model.ErrInvalidArgument, a, err)
		}
		ids = append(ids, uint32(n))
	}

	out, err := tok.Decode(ids)
	if err != nil {
		return err
	}

	os.Stdout.Write(out)
	fmt.Println()
	return nil
}
