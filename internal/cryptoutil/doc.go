// Package cryptoutil holds the hashing helpers shared by the site loader and
// the admin credential check.
package cryptoutil
