package common

import (
	"context"
	"fmt"

	"screenmatch/internal/errors"
)

// CreateInputFunc defines how to create the specific pipeline input from the
// documents read off disk.
type CreateInputFunc[Input any] func(files []NamedFile) (Input, error)

// LogDetailsFunc defines how to log the start of an operation.
type LogDetailsFunc[Input any] func(input Input, cfg CommandConfig)

// PipelineFunc is a generic function signature for a screening pipeline run.
type PipelineFunc[Input, Output any] func(context.Context, Input) (Output, error)

// RunPipelineCommand encapsulates the common logic for document-based CLI
// commands: validate and read the input files, build the pipeline input, run
// it, and hand the result to the output formatter.
func RunPipelineCommand[Input, Output any](
	ctx context.Context,
	logger *errors.Logger,
	cmdConfig CommandConfig,
	args []string,
	createInput CreateInputFunc[Input],
	pipeline PipelineFunc[Input, Output],
	logDetails LogDetailsFunc[Input],
) error {
	fileProcessor := NewFileProcessor(logger)
	outputHandler := NewOutputHandler(logger)

	files, err := fileProcessor.ValidateAndReadDocuments(args...)
	if err != nil {
		return err
	}

	input, err := createInput(files)
	if err != nil {
		return fmt.Errorf("failed to create input from documents: %w", err)
	}

	logDetails(input, cmdConfig)

	result, err := pipeline(ctx, input)
	if err != nil {
		return err
	}

	return outputHandler.HandleOutput(result, cmdConfig)
}
