package bench

// Results is the nested result table mapping value size, then
// workload, then backend label to mean throughput in kops/sec.
// First-insertion order of value sizes, and of workloads under each
// size, is preserved so tables render in sweep order.
type Results struct {
	sizes     []int
	workloads map[int][]string
	cells     map[int]map[string]map[string]float64
}

// NewResults returns an empty table.
func NewResults() *Results {
	return &Results{
		workloads: make(map[int][]string),
		cells:     make(map[int]map[string]map[string]float64),
	}
}

// Record stores the mean throughput for one (value size, workload,
// backend) cell, overwriting any previous value.
func (r *Results) Record(valueSize int, workload, backend string, kops float64) {
	byWorkload, ok := r.cells[valueSize]
	if !ok {
		byWorkload = make(map[string]map[string]float64)
		r.cells[valueSize] = byWorkload
		r.sizes = append(r.sizes, valueSize)
	}

	byBackend, ok := byWorkload[workload]
	if !ok {
		byBackend = make(map[string]float64)
		byWorkload[workload] = byBackend
		r.workloads[valueSize] = append(r.workloads[valueSize], workload)
	}

	byBackend[backend] = kops
}

// Sizes returns the value sizes in first-insertion order.
func (r *Results) Sizes() []int {
	return r.sizes
}

// Workloads returns the workloads recorded under a value size, in
// first-insertion order.
func (r *Results) Workloads(valueSize int) []string {
	return r.workloads[valueSize]
}

// Lookup returns the throughput recorded for one cell.
func (r *Results) Lookup(valueSize int, workload, backend string) (float64, bool) {
	byWorkload, ok := r.cells[valueSize]
	if !ok {
		return 0, false
	}

	byBackend, ok := byWorkload[workload]
	if !ok {
		return 0, false
	}

	kops, ok := byBackend[backend]

	return kops, ok
}

// Row is one (value size, workload) cell with every backend's mean
// throughput, the shape the JSON export uses.
type Row struct {
	ValueSize  int                `json:"value_size"`
	Workload   string             `json:"workload"`
	Throughput map[string]float64 `json:"throughput_kops"`
}

// Rows flattens the table into rendering order.
func (r *Results) Rows() []Row {
	var rows []Row

	for _, size := range r.sizes {
		for _, w := range r.workloads[size] {
			byBackend := r.cells[size][w]

			row := Row{
				ValueSize:  size,
				Workload:   w,
				Throughput: make(map[string]float64, len(byBackend)),
			}
			for backend, kops := range byBackend {
				row.Throughput[backend] = kops
			}

			rows = append(rows, row)
		}
	}

	return rows
}
