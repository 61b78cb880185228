// Package shared holds code used across VocaNote packages that belongs to no
// single layer.
//
// The testutil subpackage provides:
//
//   - BufferedSlogHandler for asserting on structured logs, including
//     checks that license keys never reach a log line
//   - A settable Clock and a StaticFingerprinter
//   - LicenseTestFixtures that seal licenses with a fixed key and manage a
//     temporary state file
//
// Example usage:
//
//	func TestActivation(t *testing.T) {
//		fx := testutil.NewLicenseTestFixtures(t)
//		mgr, logs := fx.NewManager(t, testutil.NewClock(time.Now()))
//		ok := mgr.Activate(ctx, fx.BoundLicense(t, nil))
//		testutil.AssertNeverLogged(t, logs, key)
//	}
package shared
