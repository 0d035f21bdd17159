// Copyright 2025 AxonFlow
// SPDX-License-Identifier: BUSL-1.1

// Package demo provides an in-memory repository seeded with a small example
// tree of process models and documents. Changes live as long as the
// connector instance.
package demo
