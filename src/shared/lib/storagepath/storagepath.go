package storagepath

import "fmt"

type Generator struct {
	Host   string
	Bucket string
}

func (g Generator) GeneratePath(runID string, leafPath string) string {
	return fmt.Sprintf("%s/%s/%s/%s", g.Host, g.Bucket, runID, leafPath)
}
