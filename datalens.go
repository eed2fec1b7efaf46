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


// Package datalens analyzes tabular datasets with embeddings and
// language models. Uploaded CSV data is ingested asynchronously: each
// row becomes a text snippet, snippets are embedded in batches and
// bulk-written to storage under a per-upload token. The token then keys
// status polling, similarity retrieval, aggregate analytics and
// AI-generated summaries and suggestions.
//
// The Analyzer facade wires the pipeline together; the underlying
// packages (ingestion, rag, analytics, storage) remain usable on their
// own for embedding this behavior in other services.
package datalens

import "errors"

// ErrNoDataset indicates the token does not name a submitted dataset.
var ErrNoDataset = errors.New("no dataset for token")
