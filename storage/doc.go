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


// Package storage provides the storage abstraction layer for datalens.
//
// The RecordRepository interface decouples the ingestion and retrieval
// pipeline from the similarity-search engine underneath. Two backends are
// provided: storage/postgres (pgvector, production) and storage/badger
// (embedded, tests and single-node deployments).
//
// Public constructors return interfaces to prevent accidental coupling to
// backend specifics; internal constructors may return concrete types.
//
// All implementations must be thread-safe. Bulk writes are all-or-nothing
// per call: either every record in the call is persisted or none is, which
// is what makes chunk-level failure accounting meaningful upstream.
package storage
