package mirror

// Candidate is a single mirror host taken from the package service SRV record.
type Candidate struct {
	Hostname string
	Priority uint16
	Weight   uint16
	Port     uint16
}

// Result holds the throughput measured for one mirror.
type Result struct {
	Mirror         string  `json:"mirror_name"`
	BytesPerSecond float64 `json:"bytes_per_second"`
}
