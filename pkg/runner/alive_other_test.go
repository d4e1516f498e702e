//go:build !unix

package runner

func processAlive(int) bool { return false }
