package driver

// IndexQueries are applied by BuildIndices.
var IndexQueries = []string{
	"CREATE INDEX ON :Image(name);",
	"CREATE INDEX ON :Image(session_id);",
	"CREATE INDEX ON :Cluster(uuid);",
	"CREATE INDEX ON :Cluster(session_id);",
}

const (
	DeleteSessionSideQuery = `
		MATCH (c:Cluster {session_id: $session_id, side: $side})
		DETACH DELETE c
	`

	SaveClusterNodeQuery = `
		MERGE (c:Cluster {uuid: $uuid})
		SET c.session_id = $session_id,
			c.side = $side,
			c.index = $index,
			c.size = $size,
			c.created_at = $created_at
		RETURN c.uuid AS uuid
	`

	SaveMembershipQuery = `
		MATCH (c:Cluster {uuid: $cluster_uuid})
		UNWIND $names AS name
		MERGE (i:Image {name: name, session_id: $session_id})
		MERGE (i)-[:MEMBER_OF]->(c)
		RETURN count(i) AS members
	`

	GetSessionPartitionQuery = `
		MATCH (i:Image)-[:MEMBER_OF]->(c:Cluster {session_id: $session_id, side: $side})
		RETURN c.index AS index, collect(i.name) AS names
		ORDER BY index
	`
)
