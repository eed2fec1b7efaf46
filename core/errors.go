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

import "errors"

// Domain validation errors
var (
	// ErrNoRows indicates a dataset with zero data rows was submitted.
	ErrNoRows = errors.New("dataset contains no rows")

	// ErrEmptyFilename indicates a submission without a filename.
	ErrEmptyFilename = errors.New("filename cannot be empty")

	// ErrInvalidRecord indicates a Record failed validation.
	ErrInvalidRecord = errors.New("invalid record")

	// ErrEmptyContents indicates the Contents field is empty.
	ErrEmptyContents = errors.New("contents cannot be empty")

	// ErrEmptyToken indicates a record or lookup without a job token.
	ErrEmptyToken = errors.New("token cannot be empty")

	// ErrDimensionMismatch indicates vectors of differing dimensions in one job.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")
)
