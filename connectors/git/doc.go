// Copyright 2025 AxonFlow
// SPDX-License-Identifier: BUSL-1.1

// Package git exposes the worktree of a git repository as a repository.
//
// Edits are written to the worktree and become a commit when
// CommitPendingChanges is called. The revision of an artifact is the number
// of commits that touched its file, so it only moves on commit.
//
// Options:
//
//	path          repository directory (defaults to connection_url)
//	init          create the repository when it does not exist
//	author_name   commit author, defaults to the logged-in user
//	author_email  commit author email
package git
