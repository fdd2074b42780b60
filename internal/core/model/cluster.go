package model

import "strconv"

// ClusterID names one class of the partition snapshot a constraint tracker
// was initialized from. Ids are never reused once allocated.
type ClusterID int

func (c ClusterID) String() string {
	return strconv.Itoa(int(c))
}
