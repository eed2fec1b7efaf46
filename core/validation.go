// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package core

import "fmt"

// ValidateRecord validates a Record according to domain rules.
//
// Validation rules:
//   - Token must not be empty
//   - Contents must not be empty
//   - Seq must not be negative
//
// NOT validated:
//   - Vector (may be empty until the encoder runs)
//   - CreatedAt (populated by storage on write)
func ValidateRecord(record *Record) error {
	if record == nil {
		return fmt.Errorf("%w: record is nil", ErrInvalidRecord)
	}

	if record.Token == "" {
		return fmt.Errorf("%w: %w", ErrInvalidRecord, ErrEmptyToken)
	}

	if record.Contents == "" {
		return fmt.Errorf("%w: %w", ErrInvalidRecord, ErrEmptyContents)
	}

	if record.Seq < 0 {
		return fmt.Errorf("%w: negative sequence %d", ErrInvalidRecord, record.Seq)
	}

	return nil
}

// ValidateSubmission checks the inputs of a new ingestion request.
// Rejected submissions never enter the job pipeline.
func ValidateSubmission(filename string, texts []string) error {
	if filename == "" {
		return ErrEmptyFilename
	}
	if len(texts) == 0 {
		return ErrNoRows
	}
	return nil
}

// ValidateVectors checks that all vectors share the same dimension.
// The dimension is a deployment constant of the embedding model, so a
// mismatch indicates a misconfigured or misbehaving encoder.
func ValidateVectors(vectors [][]float32) error {
	if len(vectors) == 0 {
		return nil
	}
	dim := len(vectors[0])
	for i, v := range vectors {
		if len(v) != dim {
			return fmt.Errorf("%w: vector %d has dimension %d, expected %d",
				ErrDimensionMismatch, i, len(v), dim)
		}
	}
	return nil
}
