// Package hosts classifies the machine totara is running on.
//
// Classification runs first in every entry point and gates which
// workflows may proceed: commit and deploy require a known host on its
// registered platform, provisioning requires the live installer, and
// unknown machines are refused everywhere except read-only status.
package hosts
