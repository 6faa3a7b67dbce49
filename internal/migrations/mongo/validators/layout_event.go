package validators

import "go.mongodb.org/mongo-driver/bson"

var tableSchema = bson.M{
	"bsonType": "object",
	"required": []string{"id", "table_number", "zone", "seats", "x", "y", "rotation"},
	"properties": bson.M{
		"id":           bson.M{"bsonType": "int", "minimum": 1},
		"table_number": bson.M{"bsonType": "string", "minLength": 1, "maxLength": 10},
		"zone":         bson.M{"enum": []string{"HALL_1", "HALL_2", "HALL_3"}},
		"seats":        bson.M{"bsonType": "int", "minimum": 1, "maximum": 20},
		"x":            bson.M{"bsonType": []string{"double", "int"}, "minimum": 0},
		"y":            bson.M{"bsonType": []string{"double", "int"}, "minimum": 0},
		"rotation":     bson.M{"bsonType": []string{"double", "int"}, "minimum": 0, "maximum": 315},
		"is_active":    bson.M{"bsonType": "bool"},
	},
}

var LayoutEventValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{
			"table_id",
			"zone",
			"action",
			"actor",
			"at",
		},
		"additionalProperties": true,

		"properties": bson.M{
			"_id": bson.M{
				"bsonType": "objectId",
			},

			"table_id": bson.M{
				"bsonType": "int",
				"minimum":  1,
			},

			"zone": bson.M{
				"bsonType": "string",
				"enum":     []string{"HALL_1", "HALL_2", "HALL_3"},
			},

			"action": bson.M{
				"bsonType": "string",
				"enum": []string{
					"created",
					"moved",
					"rotated",
					"deleted",
				},
			},

			"before": tableSchema,
			"after":  tableSchema,

			"actor": bson.M{
				"bsonType":  "string",
				"minLength": 1,
			},

			"at": bson.M{
				"bsonType": "date",
			},
		},
	},
}
