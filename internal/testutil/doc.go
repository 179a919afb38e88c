// Package testutil provides shared test utilities for thqm.
//
// # Fixtures
//
//   - SampleEntries() - entries as they would be read from stdin
//   - SampleInput - the raw stdin form of SampleEntries
//   - SampleAssets() - an in-memory static asset tree
//
// # Environment Helpers
//
//   - SetupConfigDir(t, yaml, env) - temp config dir with config.yaml / thqm.env
//   - WriteTestFile(t, base, path, content) - writes a file in a test dir
//
// # Assertions
//
//   - AssertEmptyNotFound(t, rec) - 404 with an empty body
//   - AssertRedirectRoot(t, rec) - 302 to "/"
//   - AssertClosed(t, ch, timeout) - channel closes in time
//
// # Timeouts
//
//   - ContextWithTestDeadline(t, fallback) - context bound to the test deadline
package testutil
