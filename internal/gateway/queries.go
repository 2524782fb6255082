package gateway

// GraphQL documents sent to the upstream. Each selects exactly the fields
// the converters in types.go read; unknown response fields are ignored.

const workspaceQuery = `
query SearchBootstrapQuery {
  workspaceOrError {
    __typename
    ... on Workspace {
      locationEntries {
        id
        name
        locationOrLoadError {
          __typename
          ... on RepositoryLocation {
            id
            name
            repositories {
              id
              name
              pipelines {
                id
                name
                isJob
              }
              schedules {
                id
                name
                cronSchedule
                executionTimezone
                pipelineName
              }
              sensors {
                id
                name
              }
              partitionSets {
                id
                name
                pipelineName
              }
              allTopLevelResourceDetails {
                id
                name
              }
            }
          }
          ... on PythonError {
            message
          }
        }
      }
    }
    ... on PythonError {
      message
    }
  }
}`

const assetsQuery = `
query SearchSecondaryQuery {
  assetsOrError {
    __typename
    ... on AssetConnection {
      nodes {
        id
        key {
          path
        }
      }
    }
    ... on PythonError {
      message
    }
  }
}`

const scheduleQuery = `
query ScheduleRowQuery($selector: ScheduleSelector!) {
  scheduleOrError(scheduleSelector: $selector) {
    __typename
    ... on Schedule {
      id
      name
      cronSchedule
      executionTimezone
      pipelineName
      mode
      partitionSet {
        id
        name
        pipelineName
      }
      scheduleState {
        id
        status
        ticks(limit: 1) {
          id
          status
          timestamp
        }
        runs(limit: 1) {
          id
          status
          startTime
        }
        nextTick {
          timestamp
        }
      }
    }
    ... on ScheduleNotFoundError {
      message
    }
    ... on PythonError {
      message
    }
  }
}`

const versionQuery = `
query VersionQuery {
  version
}`
