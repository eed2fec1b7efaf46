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


// Package ingestion implements the asynchronous dataset ingestion
// pipeline: snippets are embedded in batches, the vectors are written to
// storage in partitioned concurrent bulk operations, and job lifecycle
// is tracked in a token-keyed registry.
//
// The pipeline is composed of four collaborators:
//
//   - Registry: concurrency-safe job store keyed by token. Readers get
//     snapshot copies; only the orchestrator mutates job state.
//   - Encoder: turns texts into unit-length embedding vectors using a
//     bounded worker pool, preserving input order.
//   - Writer: partitions records into chunks and bulk-writes them
//     concurrently, each chunk on its own storage session.
//   - Orchestrator: drives one job through
//     Queued -> Embedding -> Writing -> Completed | Failed.
package ingestion
