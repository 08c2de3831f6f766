//go:build !linux

package affinity

func setAffinity(int) error {
	return ErrUnsupported
}

func allowedCPUs() ([]int, error) {
	return nil, ErrUnsupported
}
