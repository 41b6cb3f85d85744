/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package storage writes build outputs and maintains the build index.
// Outputs are written transactionally (temp file, fsync, rename) with optional timestamped backups.
// The embedded SQLite index at <out>/.scriptgen/index.sqlite records every built script and its
// characters for search and where-used lookups. It is derived from the outputs and can be deleted.
package storage
